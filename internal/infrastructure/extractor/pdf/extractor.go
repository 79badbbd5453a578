package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
)

// Extractor pulls plain text out of every page of a PDF.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractPages(ctx context.Context, raw []byte) (pages []domain.PageText, err error) {
	if !HasMagic(raw) {
		return nil, domain.WrapError(domain.ErrInvalidPDF, "extract pages", fmt.Errorf("missing %%PDF- header"))
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = domain.WrapError(domain.ErrInvalidPDF, "extract pages", fmt.Errorf("parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidPDF, "open pdf", err)
	}

	total := reader.NumPage()
	out := make([]domain.PageText, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidPDF, fmt.Sprintf("extract page %d", i), err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, domain.PageText{Page: i, Text: text})
	}
	return out, nil
}

// HasMagic reports whether raw starts with the PDF header.
func HasMagic(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte("%PDF-"))
}
