package document_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ferdiebergado/ragchat/internal/document"
)

func TestChunker_Split(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		chunker document.Chunker
		text    string
		want    []string
	}{
		{"Empty", document.Chunker{Size: 10, Overlap: 2}, "", nil},
		{"Whitespace only", document.Chunker{Size: 10, Overlap: 2}, "   \n ", nil},
		{"Shorter than size", document.Chunker{Size: 100, Overlap: 10}, "hello world", []string{"hello world"}},
		{"No overlap", document.Chunker{Size: 4, Overlap: 0}, "abcdefghij", []string{"abcd", "efgh", "ij"}},
		{"Overlap", document.Chunker{Size: 4, Overlap: 2}, "abcdefgh", []string{"abcd", "cdef", "efgh"}},
		{"Breaks at whitespace", document.Chunker{Size: 10, Overlap: 0}, "aaaaaaaa bbbbbbbb", []string{"aaaaaaaa", "bbbbbbbb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.chunker.Split(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Split() = %q, want: %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Split()[%d] = %q, want: %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunker_SplitBounds(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("ünïcode wörds ", 300)
	chunker := document.Chunker{Size: 200, Overlap: 50}

	chunks := chunker.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("len(chunks) = %d, want more than 1", len(chunks))
	}

	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > chunker.Size {
			t.Errorf("chunk %d has %d runes, want at most %d", i, n, chunker.Size)
		}
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
	}
}
