package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
)

// PdfLoader implements the Loader interface for reading PDF files. It returns
// one Document per page with the page label in the metadata.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load reads a PDF file and extracts the plain text of each page. Pages whose
// text cannot be decoded are skipped rather than failing the whole document.
func (l *PdfLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	var documents []*schema.Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		doc := &schema.Document{
			ID:   uuid.New().String(),
			Text: CleanText(text),
			Metadata: map[string]interface{}{
				schema.MetadataKeyFileName: filepath.Base(path),
				"page_label":               fmt.Sprintf("%d", i),
			},
		}
		documents = append(documents, doc)
	}

	return documents, nil
}

// PlainText joins per-page documents back into one text with page markers,
// the form the scoring prompt and the indexer consume. Markers carry the
// page_label Load recorded, so skipped pages do not shift the numbering;
// documents without a label fall back to their position.
func PlainText(docs []*schema.Document) string {
	var sb strings.Builder
	for i, doc := range docs {
		if doc.Text == "" {
			continue
		}
		label, _ := doc.Metadata["page_label"].(string)
		if label == "" {
			label = fmt.Sprintf("%d", i+1)
		}
		sb.WriteString(fmt.Sprintf("\n--- Página %s ---\n", label))
		sb.WriteString(doc.Text)
	}
	return strings.TrimSpace(sb.String())
}

// CleanText normalizes extracted text: control characters removed and
// whitespace runs collapsed to single spaces.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.Join(strings.Fields(text), " ")
}

var _ interfaces.Loader = (*PdfLoader)(nil)
