package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Jampi276/pymescore-ai/internal/models"
	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

// maxFinancialTextChars bounds how much statement text goes into the one-shot
// scoring prompt. It does not affect what was indexed.
const maxFinancialTextChars = 2000

// ScoringPipeline produces a structured credit risk report from extracted
// financial text and optional social signals. Its contract never fails: any
// generation or decoding problem yields the deterministic default report.
type ScoringPipeline struct {
	llm        interfaces.LLM
	log        *logger.Logger
	llmTimeout time.Duration
}

// NewScoringPipeline creates a ScoringPipeline.
func NewScoringPipeline(llm interfaces.LLM, llmTimeout time.Duration, log *logger.Logger) *ScoringPipeline {
	return &ScoringPipeline{llm: llm, log: log, llmTimeout: llmTimeout}
}

// GenerateScoring runs one analysis call and decodes the reply into a
// ScoringResult. Malformed replies and unavailable generation both degrade to
// the fixed default; the caller always receives a complete report.
func (p *ScoringPipeline) GenerateScoring(ctx context.Context, financialText string, socialData map[string]interface{}) *models.ScoringResult {
	prompt := p.buildScoringPrompt(financialText, socialData)

	reply, err := p.generate(ctx, prompt)
	if err != nil {
		p.log.Error(fmt.Sprintf("scoring generation failed, using default report: %v", err))
		return models.DefaultScoringResult()
	}

	var result models.ScoringResult
	if err := decodeStrict(reply, &result); err != nil {
		p.log.Warn(fmt.Sprintf("scoring reply did not decode, using default report: %v", err))
		return models.DefaultScoringResult()
	}
	if !validScoring(&result) {
		p.log.Warn("scoring reply decoded but is incomplete, using default report")
		return models.DefaultScoringResult()
	}

	p.log.Info("scoring generated successfully")
	return &result
}

// Simulate runs an improvement-scenario projection. Like GenerateScoring it
// never fails: unusable replies degrade to a structured default.
func (p *ScoringPipeline) Simulate(ctx context.Context, scenario map[string]interface{}) *models.SimulationResult {
	scenarioJSON, err := json.Marshal(scenario)
	if err != nil {
		scenarioJSON = []byte("{}")
	}

	prompt := fmt.Sprintf(`Basándose en los datos del escenario: %s

Genera una simulación de scoring mejorado considerando:
1. Mejoras en ventas o ingresos
2. Mejor presencia digital
3. Referencias positivas adicionales

Responde SOLO con un JSON válido que contenga:
- scoring_mejorado: número del 0-100
- nivel_riesgo: "bajo", "medio" o "alto"
- umbral_credito: monto recomendado
- recomendaciones: lista de sugerencias`, scenarioJSON)

	reply, err := p.generate(ctx, prompt)
	if err != nil {
		p.log.Error(fmt.Sprintf("simulation generation failed, using default: %v", err))
		return models.DefaultSimulationResult()
	}

	var result models.SimulationResult
	if err := decodeStrict(reply, &result); err != nil {
		p.log.Warn(fmt.Sprintf("simulation reply did not decode, using default: %v", err))
		return models.DefaultSimulationResult()
	}
	return &result
}

func (p *ScoringPipeline) generate(ctx context.Context, prompt string) (string, error) {
	if p.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.llmTimeout)
		defer cancel()
	}
	return p.llm.Generate(ctx, prompt)
}

// buildScoringPrompt assembles the fixed five-section analysis template with
// the truncated financial text and the serialized social data.
func (p *ScoringPipeline) buildScoringPrompt(financialText string, socialData map[string]interface{}) string {
	// Bound in characters, not bytes, so a multi-byte rune at the boundary
	// is never split into invalid UTF-8.
	if runes := []rune(financialText); len(runes) > maxFinancialTextChars {
		financialText = string(runes[:maxFinancialTextChars])
	}

	socialJSON, err := json.MarshalIndent(socialData, "", "  ")
	if err != nil {
		socialJSON = []byte("{}")
	}

	return fmt.Sprintf(`Actúa como un analista financiero experto en evaluación de riesgos de PYMEs.

Analiza los siguientes datos:

DATOS FINANCIEROS:
%s

DATOS DIGITALES/SOCIALES:
%s

Genera un análisis completo que incluya:

1. ANÁLISIS FINANCIERO:
- Liquidez y solvencia
- Rentabilidad
- Endeudamiento
- Flujo de caja

2. ANÁLISIS DIGITAL:
- Presencia online
- Reputación digital
- Actividad comercial online

3. ANÁLISIS DE REFERENCIAS:
- Credibilidad de la información
- Consistencia de datos

4. EVALUACIÓN DE RIESGOS:
- Riesgo financiero
- Riesgo operacional
- Riesgo reputacional

5. SCORING FINAL:
- Puntuación del 0-100
- Nivel de riesgo (bajo/medio/alto)
- Umbral de crédito recomendado

Responde SOLO con un JSON válido que contenga:
{
    "analisis_financiero": ["punto1", "punto2", "punto3"],
    "analisis_digital": ["punto1", "punto2", "punto3"],
    "analisis_referencias": ["punto1", "punto2"],
    "riesgos": [
        {"tipo": "financiero", "nivel": "bajo/medio/alto", "descripcion": "..."},
        {"tipo": "operacional", "nivel": "bajo/medio/alto", "descripcion": "..."},
        {"tipo": "reputacional", "nivel": "bajo/medio/alto", "descripcion": "..."}
    ],
    "scoring": {
        "puntuacion": 75,
        "nivel": "medio",
        "umbral": 35000,
        "factores_positivos": ["factor1", "factor2"],
        "factores_negativos": ["factor1", "factor2"],
        "recomendaciones": ["rec1", "rec2"]
    }
}`, financialText, socialJSON)
}

// decodeStrict attempts a schema-strict decode of the model reply. Unknown
// fields and trailing garbage are treated as failures, uniformly; there is no
// special-casing of individual malformed shapes. A fenced code block around
// the JSON object is tolerated.
func decodeStrict(reply string, target interface{}) error {
	raw := strings.TrimSpace(reply)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return err
	}
	// Anything after the object means the reply was not solely JSON.
	if dec.More() {
		return fmt.Errorf("trailing content after JSON object")
	}
	return nil
}

// validScoring rejects replies that decoded but lack the required shape.
func validScoring(result *models.ScoringResult) bool {
	if result.Scoring.Score < 0 || result.Scoring.Score > 100 {
		return false
	}
	if result.Scoring.Level == "" {
		return false
	}
	if len(result.FinancialAnalysis) == 0 || len(result.Risks) == 0 {
		return false
	}
	return true
}
