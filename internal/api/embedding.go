package api

// EmbedDocumentRequest groups texts that are embedded in a single call.
// Values of the resulting DocumentEmbedding follow the order of Chunks.
type EmbedDocumentRequest struct {
	Title  string
	Chunks []string
}

type DocumentEmbedding struct {
	Title  string
	Chunks []string
	Values [][]float32
}

// Len returns the number of texts across all requests.
func Len(docs []*EmbedDocumentRequest) int {
	n := 0
	for _, doc := range docs {
		n += len(doc.Chunks)
	}
	return n
}

// SplitBatches splits texts into consecutive batches of at most size
// elements. A size <= 0 yields a single batch.
func SplitBatches(texts []string, size int) [][]string {
	if len(texts) == 0 {
		return nil
	}
	if size <= 0 || len(texts) <= size {
		return [][]string{texts}
	}

	batches := make([][]string, 0, (len(texts)+size-1)/size)
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		batches = append(batches, texts[start:end])
	}
	return batches
}
