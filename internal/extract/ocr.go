package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	"github.com/alan-mat/atscore/internal/provider"
)

// OCRExtractor sends the whole document to a remote page parser.
type OCRExtractor struct {
	parser provider.DocParser
}

func NewOCRExtractor(p provider.DocParser) *OCRExtractor {
	return &OCRExtractor{parser: p}
}

func (e *OCRExtractor) Extract(ctx context.Context, path string) Result {
	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to open document", "path", path, "err", err)
		return Result{Err: fmt.Errorf("%w: %w", ErrUnreadableDocument, err)}
	}

	content, err := e.parser.Parse(ctx, base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		slog.Warn("ocr parse failed", "path", path, "err", err)
		return Result{Err: fmt.Errorf("%w: %w", ErrParserFailed, err)}
	}
	if content == nil {
		return Result{Err: ErrNoText}
	}

	return resultFrom(*content)
}
