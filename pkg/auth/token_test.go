package auth

import (
	"strings"
	"testing"
)

func TestTokenGenerator_GenerateToken(t *testing.T) {
	tg := NewTokenGenerator()

	token, tokenHash, tokenPrefix, err := tg.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	// Check token format
	if !strings.HasPrefix(token, TokenPrefix) {
		t.Errorf("Token should start with %q, got %q", TokenPrefix, token)
	}

	// Check hash length (SHA256 = 64 hex chars)
	if len(tokenHash) != 64 {
		t.Errorf("TokenHash length = %d, want 64", len(tokenHash))
	}

	// Check prefix format
	if !strings.HasPrefix(tokenPrefix, TokenPrefix) {
		t.Errorf("TokenPrefix should start with %q, got %q", TokenPrefix, tokenPrefix)
	}

	// Token should be long enough
	if len(token) < len(TokenPrefix)+8 {
		t.Errorf("Token too short: %d chars", len(token))
	}
}

func TestTokenGenerator_GenerateToken_Uniqueness(t *testing.T) {
	tg := NewTokenGenerator()

	// Generate multiple tokens and ensure they're unique
	tokens := make(map[string]bool)
	hashes := make(map[string]bool)

	for i := 0; i < 100; i++ {
		token, tokenHash, _, err := tg.GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}

		if tokens[token] {
			t.Errorf("Duplicate token generated: %s", token)
		}
		if hashes[tokenHash] {
			t.Errorf("Duplicate token hash generated: %s", tokenHash)
		}

		tokens[token] = true
		hashes[tokenHash] = true
	}
}

func TestTokenGenerator_HashToken(t *testing.T) {
	tg := NewTokenGenerator()

	token := "tb_test123456789"
	hash1 := tg.HashToken(token)
	hash2 := tg.HashToken(token)

	// Same token should produce same hash
	if hash1 != hash2 {
		t.Error("Same token should produce same hash")
	}

	// Hash should be 64 chars (SHA256)
	if len(hash1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(hash1))
	}

	// Different tokens should produce different hashes
	hash3 := tg.HashToken("tb_different")
	if hash1 == hash3 {
		t.Error("Different tokens should produce different hashes")
	}
}

func TestTokenGenerator_ValidateTokenFormat(t *testing.T) {
	tg := NewTokenGenerator()

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{
			name:    "valid token",
			token:   "tb_abc123def456",
			wantErr: false,
		},
		{
			name:    "missing prefix",
			token:   "abc123def456",
			wantErr: true,
		},
		{
			name:    "wrong prefix",
			token:   "other_abc123def456",
			wantErr: true,
		},
		{
			name:    "empty token part",
			token:   "tb_",
			wantErr: true,
		},
		{
			name:    "invalid base64",
			token:   "tb_!!!invalid!!!",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tg.ValidateTokenFormat(tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTokenFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenGenerator_ExtractPrefix(t *testing.T) {
	tg := NewTokenGenerator()

	tests := []struct {
		name   string
		token  string
		want   string
	}{
		{
			name:  "normal token",
			token: "tb_abc123def456",
			want:  "tb_abc123de",
		},
		{
			name:  "short token",
			token: "tb_abc",
			want:  "tb_abc",
		},
		{
			name:  "no prefix",
			token: "invalid",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tg.ExtractPrefix(tt.token)
			if got != tt.want {
				t.Errorf("ExtractPrefix() = %q, want %q", got, tt.want)
			}
		})
	}
}
