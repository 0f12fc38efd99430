package nlp

import "strings"

const (
	DefaultMaxWords = 400
	DefaultOverlap  = 50
)

// Chunk splits text into windows of at most maxWords words, each starting
// maxWords-overlap words after the previous one. An overlap that leaves no
// forward progress is treated as zero. maxWords <= 0 yields no chunks.
func Chunk(text string, maxWords, overlap int) []string {
	if maxWords <= 0 {
		return nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := maxWords - overlap
	if step <= 0 {
		step = maxWords
	}

	chunks := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := min(start+maxWords, len(words))
		chunk := strings.Join(words[start:end], " ")
		if chunk == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
