package extract

// NewPDFExtractorWith exposes the page source seam to tests.
func NewPDFExtractorWith(open func(path string) (interface {
	NumPage() int
	Text(page int) (string, error)
	Close() error
}, error)) *PDFExtractor {
	return &PDFExtractor{open: func(path string) (pageSource, error) { return open(path) }}
}
