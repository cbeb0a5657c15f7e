package jwt_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/platform/jwt"
)

func TestSignAndVerify_Success(t *testing.T) {
	t.Parallel()

	signer := jwt.NewGolangJWTSigner(&config.JWT{Key: "123", Issuer: "ragchat"})

	token, err := signer.Sign("alice", 5*time.Minute)
	if err != nil {
		t.Fatalf("signer.Sign() = %v, want: %v", err, nil)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("signer.Verify(token) = %v, want: %v", err, nil)
	}

	if claims.Subject != "alice" {
		t.Errorf("claims.Subject = %q, want: %q", claims.Subject, "alice")
	}

	if time.Until(claims.ExpiresAt) <= 0 {
		t.Errorf("claims.ExpiresAt = %v, want a time in the future", claims.ExpiresAt)
	}
}

func TestVerify_Rejects(t *testing.T) {
	t.Parallel()

	signer := jwt.NewGolangJWTSigner(&config.JWT{Key: "123", Issuer: "ragchat"})
	otherKey := jwt.NewGolangJWTSigner(&config.JWT{Key: "456", Issuer: "ragchat"})
	otherIssuer := jwt.NewGolangJWTSigner(&config.JWT{Key: "123", Issuer: "someone-else"})

	expired, err := signer.Sign("alice", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	wrongKey, err := otherKey.Sign("alice", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	wrongIssuer, err := otherIssuer.Sign("alice", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"Expired", expired},
		{"Signed with another key", wrongKey},
		{"Issued by someone else", wrongIssuer},
		{"Garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := signer.Verify(tt.token); err == nil {
				t.Errorf("signer.Verify(%q) = nil, want: error", tt.token)
			}
		})
	}
}

func TestSign_RequiresSubject(t *testing.T) {
	t.Parallel()

	signer := jwt.NewGolangJWTSigner(&config.JWT{Key: "123", Issuer: "ragchat"})

	if _, err := signer.Sign("", time.Minute); !errors.Is(err, jwt.ErrMissingSubject) {
		t.Errorf("signer.Sign(%q) = %v, want: %v", "", err, jwt.ErrMissingSubject)
	}
}
