package loaders

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/Jampi276/pymescore-ai/internal/models"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

const scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var (
	phonePattern = regexp.MustCompile(`\b\d{3,4}[-.]?\d{3,4}[-.]?\d{3,4}\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

var commercialKeywords = []string{
	"venta", "vender", "producto", "servicio", "cliente", "empresa",
	"negocio", "comercio", "tienda", "contacto", "precio", "oferta",
}

var positiveWords = []string{"excelente", "bueno", "recomendado", "calidad", "satisfecho", "profesional"}
var negativeWords = []string{"malo", "terrible", "problema", "queja", "deficiente", "estafa"}

// reviewClassHints are class-name fragments that usually mark review widgets.
var reviewClassHints = []string{"review", "comment", "rating", "testimonial"}

// WebScraper fetches a URL and derives reputation signals from its content.
// It never fails: any network or parse error yields a clearly-flagged
// simulated profile instead.
type WebScraper struct {
	client *http.Client
	log    *logger.Logger
}

// NewWebScraper creates a WebScraper with a bounded request timeout.
func NewWebScraper(log *logger.Logger) *WebScraper {
	return &WebScraper{
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Scrape extracts social/web reputation signals from the given URL.
func (w *WebScraper) Scrape(ctx context.Context, url string) *models.SocialSignals {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		w.log.Warn(fmt.Sprintf("invalid scrape URL %s: %v", url, err))
		return simulatedSignals(url, "Error de conexión")
	}
	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Warn(fmt.Sprintf("scrape request failed for %s: %v", url, err))
		return simulatedSignals(url, "Error de conexión")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.log.Warn(fmt.Sprintf("scrape for %s returned status %d", url, resp.StatusCode))
		return simulatedSignals(url, "Error de conexión")
	}

	page, err := parsePage(resp.Body)
	if err != nil {
		w.log.Warn(fmt.Sprintf("scrape parse failed for %s: %v", url, err))
		return simulatedSignals(url, "Error de procesamiento")
	}

	mainText := strings.Join(page.paragraphs, " ")
	signals := &models.SocialSignals{
		URL:                  url,
		Title:                page.title,
		Description:          page.description,
		MainText:             truncate(mainText, 500),
		CommercialIndicators: commercialIndicators(page.fullText),
		Sentiment:            analyzeSentiment(mainText),
		ReviewCount:          page.reviewCount,
		Timestamp:            time.Now().UTC().Format(http.TimeFormat),
		ContentLength:        len(mainText),
		SiteType:             classifySite(url, page.fullText),
	}

	w.log.Info(fmt.Sprintf("scraping completed for %s (type=%s)", url, signals.SiteType))
	return signals
}

// pageData is the single-pass tokenizer harvest of an HTML document.
type pageData struct {
	title       string
	description string
	paragraphs  []string
	fullText    string
	reviewCount int
}

func parsePage(body io.Reader) (*pageData, error) {
	z := html.NewTokenizer(body)
	page := &pageData{title: "Sin título"}

	var full strings.Builder
	var inTitle, inScript, inStyle bool
	var pDepth int
	var currentP strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				page.fullText = strings.ToLower(full.String())
				return page, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			attrs := map[string]string{}
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = z.TagAttr()
				attrs[string(k)] = string(v)
			}

			switch tag {
			case "title":
				inTitle = true
			case "script":
				inScript = true
			case "style":
				inStyle = true
			case "p":
				pDepth++
			case "meta":
				if attrs["name"] == "description" {
					page.description = strings.TrimSpace(attrs["content"])
				}
			}

			if class, ok := attrs["class"]; ok {
				lower := strings.ToLower(class)
				for _, hint := range reviewClassHints {
					if strings.Contains(lower, hint) {
						page.reviewCount++
						break
					}
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = false
			case "script":
				inScript = false
			case "style":
				inStyle = false
			case "p":
				if pDepth > 0 {
					pDepth--
					if pDepth == 0 {
						if text := strings.TrimSpace(currentP.String()); text != "" && len(page.paragraphs) < 5 {
							page.paragraphs = append(page.paragraphs, text)
						}
						currentP.Reset()
					}
				}
			}

		case html.TextToken:
			if inScript || inStyle {
				continue
			}
			text := string(z.Text())
			if inTitle {
				if t := strings.TrimSpace(text); t != "" {
					page.title = t
				}
				continue
			}
			full.WriteString(text)
			full.WriteByte(' ')
			if pDepth > 0 {
				currentP.WriteString(text)
			}
		}
	}
}

// commercialIndicators lists the commercial-activity signals found in the
// page text: keyword mentions plus contact phone numbers and emails.
func commercialIndicators(lowerText string) []string {
	var indicators []string
	for _, keyword := range commercialKeywords {
		if strings.Contains(lowerText, keyword) {
			indicators = append(indicators, fmt.Sprintf("Menciona '%s'", keyword))
		}
	}
	if phones := phonePattern.FindAllString(lowerText, -1); len(phones) > 0 {
		indicators = append(indicators, fmt.Sprintf("Tiene %d números de contacto", len(phones)))
	}
	if emails := emailPattern.FindAllString(lowerText, -1); len(emails) > 0 {
		indicators = append(indicators, fmt.Sprintf("Tiene %d emails de contacto", len(emails)))
	}
	return indicators
}

// analyzeSentiment performs keyword-count sentiment classification.
func analyzeSentiment(text string) models.Sentiment {
	lower := strings.ToLower(text)

	positive := 0
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			positive++
		}
	}
	negative := 0
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			negative++
		}
	}

	classification := "neutro"
	if positive > negative {
		classification = "positivo"
	} else if negative > positive {
		classification = "negativo"
	}

	wordCount := len(strings.Fields(text))
	if wordCount == 0 {
		wordCount = 1
	}

	return models.Sentiment{
		Classification: classification,
		PositiveCount:  positive,
		NegativeCount:  negative,
		Confidence:     float64(abs(positive-negative)) / float64(wordCount),
	}
}

// classifySite guesses the site category from the URL and page text.
func classifySite(url, lowerText string) string {
	lowerURL := strings.ToLower(url)

	for _, net := range []string{"facebook.com", "twitter.com", "instagram.com", "linkedin.com"} {
		if strings.Contains(lowerURL, net) {
			return "red_social"
		}
	}
	for _, site := range []string{"google.com/maps", "yelp.com", "tripadvisor.com"} {
		if strings.Contains(lowerURL, site) {
			return "sitio_resenas"
		}
	}
	for _, word := range []string{"carrito", "comprar", "agregar al carrito", "checkout"} {
		if strings.Contains(lowerText, word) {
			return "ecommerce"
		}
	}
	for _, word := range []string{"empresa", "nosotros", "servicios", "contacto"} {
		if strings.Contains(lowerText, word) {
			return "corporativo"
		}
	}
	return "general"
}

// simulatedSignals builds the flagged stand-in profile returned when the
// page cannot be analyzed.
func simulatedSignals(url, cause string) *models.SocialSignals {
	return &models.SocialSignals{
		URL:                  url,
		Title:                "Información no disponible",
		Description:          fmt.Sprintf("No se pudo extraer información: %s", cause),
		MainText:             "Contenido no accesible para análisis.",
		CommercialIndicators: []string{"Simulado: Presencia digital detectada"},
		Sentiment: models.Sentiment{
			Classification: "neutro",
			PositiveCount:  1,
			NegativeCount:  0,
			Confidence:     0.5,
		},
		Timestamp:       time.Now().UTC().Format(http.TimeFormat),
		SiteType:        "no_disponible",
		Simulated:       true,
		SimulationCause: cause,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
