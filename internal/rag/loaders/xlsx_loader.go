package loaders

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
)

// XlsxLoader implements the Loader interface for spreadsheet financial
// statements. Each sheet becomes one Document whose text is a Markdown table.
type XlsxLoader struct{}

// NewXlsxLoader creates a new XlsxLoader.
func NewXlsxLoader() *XlsxLoader {
	return &XlsxLoader{}
}

// Load reads an .xlsx file and converts every sheet to a Markdown table.
// Sheets that cannot be read are skipped.
func (l *XlsxLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var documents []*schema.Document
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil || len(rows) == 0 {
			continue
		}

		var md strings.Builder
		md.WriteString("| " + strings.Join(rows[0], " | ") + " |\n")
		md.WriteString("|" + strings.Repeat(" --- |", len(rows[0])) + "\n")
		for _, row := range rows[1:] {
			md.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}

		documents = append(documents, &schema.Document{
			ID:   uuid.New().String(),
			Text: md.String(),
			Metadata: map[string]interface{}{
				schema.MetadataKeyFileName: filepath.Base(path),
				"sheet_name":               sheetName,
			},
		})
	}

	return documents, nil
}

var _ interfaces.Loader = (*XlsxLoader)(nil)
