package validation_test

import (
	"testing"

	"github.com/ferdiebergado/ragchat/internal/platform/validation"
)

func TestGoplaygroundValidator_ValidateStruct(t *testing.T) {
	t.Parallel()

	type chatInput struct {
		Message   string `json:"message" validate:"required,max=8"`
		SessionID string `json:"session_id" validate:"omitempty,uuid"`
		TopK      int    `json:"n_results" validate:"omitempty,gte=1,lte=20"`
	}

	tests := []struct {
		name     string
		given    any
		field    string
		hasError bool
		errMsg   string
	}{
		{"Required field is present", chatInput{Message: "hi"}, "message", false, ""},
		{"Required field is missing", chatInput{}, "message", true, "message is required"},
		{"Field too long", chatInput{Message: "far too long"}, "message", true, "message must be at most 8 characters long"},
		{"Invalid uuid", chatInput{Message: "hi", SessionID: "abc"}, "session_id", true, "session_id must be a valid UUID"},
		{"Out of range", chatInput{Message: "hi", TopK: 50}, "n_results", true, "n_results must be less than or equal to 20"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v := validation.NewGoPlaygroundValidator()

			errs := v.ValidateStruct(tc.given)
			if (errs != nil) != tc.hasError {
				t.Fatalf("v.ValidateStruct(%v) = %+v, hasError: %v", tc.given, errs, tc.hasError)
			}

			gotMsg, wantMsg := errs[tc.field], tc.errMsg
			if gotMsg != wantMsg {
				t.Errorf("errs[%q] = %q, want: %q", tc.field, gotMsg, wantMsg)
			}
		})
	}
}
