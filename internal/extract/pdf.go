package extract

import (
	"context"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/papervoice/papervoice/internal/fault"
)

// PDF extracts page text from PDF documents.
type PDF struct{}

// NewPDF returns the PDF extractor.
func NewPDF() PDF { return PDF{} }

// Extract concatenates the text of every page, joined by newlines. Pages
// without extractable text are skipped.
func (PDF) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fault.Extraction("extract", path, err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fault.Extraction("extract", path, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}
