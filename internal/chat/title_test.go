package chat_test

import (
	"strings"
	"testing"

	"github.com/ferdiebergado/ragchat/internal/chat"
)

func TestTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, message, want string
	}{
		{"Short", "Hello there", "Hello there"},
		{"Exactly 30", strings.Repeat("a", 30), strings.Repeat("a", 30)},
		{"Long", "What does the quarterly report say about revenue?", "What does the quarterly report..."},
		{"Multibyte", strings.Repeat("é", 31), strings.Repeat("é", 30) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := chat.Title(tt.message, 30); got != tt.want {
				t.Errorf("Title(%q) = %q, want: %q", tt.message, got, tt.want)
			}
		})
	}
}
