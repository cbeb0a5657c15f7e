package document

import (
	"strings"
	"unicode"
)

// Chunker splits text into overlapping windows measured in runes.
type Chunker struct {
	Size    int
	Overlap int
}

// Split cuts text into windows of at most Size runes, each starting Overlap
// runes before the previous one ended. A window is shortened to the last
// whitespace in its final fifth so words are not cut in half.
func (c Chunker) Split(text string) []string {
	runes := []rune(text)
	if c.Size < 1 || len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := min(start+c.Size, len(runes))
		if end < len(runes) {
			floor := max(end-c.Size/5, start+1)
			for i := end - 1; i >= floor; i-- {
				if unicode.IsSpace(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - c.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}
