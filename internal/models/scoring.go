package models

// Risk describes one evaluated risk dimension.
type Risk struct {
	Type        string `json:"tipo"`
	Level       string `json:"nivel"` // "bajo", "medio" or "alto"
	Description string `json:"descripcion"`
}

// ScoringSummary is the final numeric verdict of an analysis.
type ScoringSummary struct {
	Score           int      `json:"puntuacion"` // 0-100
	Level           string   `json:"nivel"`
	CreditThreshold float64  `json:"umbral"`
	PositiveFactors []string `json:"factores_positivos"`
	NegativeFactors []string `json:"factores_negativos"`
	Recommendations []string `json:"recomendaciones"`
}

// ScoringResult is the complete structured output of the scoring pipeline.
// The JSON field names are the wire contract consumed by the frontend; they
// must not change.
type ScoringResult struct {
	FinancialAnalysis  []string `json:"analisis_financiero"`
	DigitalAnalysis    []string `json:"analisis_digital"`
	ReferencesAnalysis []string `json:"analisis_referencias"`
	Risks              []Risk   `json:"riesgos"`
	Scoring            ScoringSummary `json:"scoring"`
}

// SimulationResult is the output of an improvement-scenario simulation.
type SimulationResult struct {
	ImprovedScore   int      `json:"scoring_mejorado"`
	RiskLevel       string   `json:"nivel_riesgo"`
	CreditThreshold float64  `json:"umbral_credito"`
	Recommendations []string `json:"recomendaciones"`
}

// DefaultScoringResult returns the deterministic fallback report used whenever
// the model is unavailable or replies with something that does not decode into
// a ScoringResult. Callers always receive a complete, internally consistent
// report, never a partial one.
func DefaultScoringResult() *ScoringResult {
	return &ScoringResult{
		FinancialAnalysis: []string{
			"Estados financieros disponibles para análisis",
			"Requiere evaluación detallada de liquidez",
			"Necesaria revisión de estructura de costos",
		},
		DigitalAnalysis: []string{
			"Presencia digital básica detectada",
			"Actividad comercial online identificada",
			"Reputación digital en evaluación",
		},
		ReferencesAnalysis: []string{
			"Información básica verificada",
			"Requiere validación adicional de referencias",
		},
		Risks: []Risk{
			{Type: "financiero", Level: "medio", Description: "Análisis financiero pendiente de completar"},
			{Type: "operacional", Level: "medio", Description: "Evaluación operacional estándar"},
			{Type: "reputacional", Level: "bajo", Description: "Sin indicadores negativos detectados"},
		},
		Scoring: ScoringSummary{
			Score:           65,
			Level:           "medio",
			CreditThreshold: 30000,
			PositiveFactors: []string{"Documentación disponible", "Presencia digital"},
			NegativeFactors: []string{"Análisis pendiente"},
			Recommendations: []string{"Completar análisis financiero", "Mejorar presencia digital"},
		},
	}
}

// DefaultSimulationResult is the structured fallback for scenario simulation.
func DefaultSimulationResult() *SimulationResult {
	return &SimulationResult{
		ImprovedScore:   75,
		RiskLevel:       "medio",
		CreditThreshold: 45000,
		Recommendations: []string{
			"Mejorar presencia en redes sociales",
			"Diversificar fuentes de ingresos",
			"Mantener registros financieros actualizados",
		},
	}
}
