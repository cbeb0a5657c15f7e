package errx_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ferdiebergado/ragchat/internal/pkg/errx"
)

func TestIsContextError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Canceled", context.Canceled, true},
		{"Wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"Other error", errors.New("boom"), false},
		{"Nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := errx.IsContextError(tt.err); got != tt.want {
				t.Errorf("errx.IsContextError(%v) = %v, want: %v", tt.err, got, tt.want)
			}
		})
	}
}
