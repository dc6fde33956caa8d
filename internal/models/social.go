package models

// Sentiment is the keyword-based sentiment classification of scraped text.
type Sentiment struct {
	Classification string  `json:"clasificacion"` // "positivo", "negativo" or "neutro"
	PositiveCount  int     `json:"puntos_positivos"`
	NegativeCount  int     `json:"puntos_negativos"`
	Confidence     float64 `json:"confianza"`
}

// SocialSignals is the structured reputation profile extracted from a URL.
// When the page cannot be fetched or parsed the extractor returns a profile
// with Simulated=true and the reason in SimulationCause; callers that must
// treat real and simulated data differently branch on that flag.
type SocialSignals struct {
	URL                  string    `json:"url"`
	Title                string    `json:"titulo"`
	Description          string    `json:"descripcion"`
	MainText             string    `json:"texto_principal"`
	CommercialIndicators []string  `json:"indicadores_comerciales"`
	Sentiment            Sentiment `json:"sentimiento"`
	ReviewCount          int       `json:"reviews_count"`
	Timestamp            string    `json:"timestamp"`
	ContentLength        int       `json:"longitud_contenido"`
	SiteType             string    `json:"tipo_sitio"`
	Simulated            bool      `json:"simulado,omitempty"`
	SimulationCause      string    `json:"motivo_simulacion,omitempty"`
}
