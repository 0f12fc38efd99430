package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/gen2brain/go-fitz"
)

type pageSource interface {
	NumPage() int
	Text(page int) (string, error)
	Close() error
}

type opener func(path string) (pageSource, error)

func openFitz(path string) (pageSource, error) {
	return fitz.New(path)
}

// PDFExtractor reads the text layer of a PDF with MuPDF.
type PDFExtractor struct {
	open opener
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{open: openFitz}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pdf extraction panicked", "path", path, "panic", r)
			res = Result{Err: fmt.Errorf("%w: %v", ErrUnreadableDocument, r)}
		}
	}()

	src, err := e.open(path)
	if err != nil {
		slog.Warn("failed to open document", "path", path, "err", err)
		return Result{Err: fmt.Errorf("%w: %w", ErrUnreadableDocument, err)}
	}
	defer src.Close()

	content := api.DocumentContent{
		Pages: make([]api.DocumentPage, 0, src.NumPage()),
	}
	for i := range src.NumPage() {
		if err := ctx.Err(); err != nil {
			return Result{Err: err}
		}

		text, err := src.Text(i)
		if err != nil {
			slog.Debug("skipping unreadable page", "path", path, "page", i, "err", err)
			text = ""
		}
		content.Pages = append(content.Pages, api.DocumentPage{Index: i, Text: text})
	}

	return resultFrom(content)
}

func resultFrom(content api.DocumentContent) Result {
	text := content.Text()
	if text == "" {
		return Result{Pages: len(content.Pages), Err: ErrNoText}
	}
	return Result{Text: text, Pages: content.ReadablePages()}
}
