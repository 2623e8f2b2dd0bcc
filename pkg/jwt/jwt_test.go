package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key"

// ============================================================================
// Test Helpers
// ============================================================================

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{Secret: testSecret, ExpirationMins: 15})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func testClaims() Claims {
	return Claims{
		UserID:           "u1",
		Email:            "a@b.com",
		Role:             "admin",
		SubscriptionTier: "raid",
		Guilds:           []string{"guild_a", "guild_b"},
	}
}

// ============================================================================
// NewService Tests
// ============================================================================

func TestNewService_EmptySecret_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()
	_, err := NewService(Config{})
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

// ============================================================================
// Sign / Validate Tests
// ============================================================================

func TestValidate_RoundTrip_ReturnsClaims(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(testClaims())
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "a@b.com" {
		t.Errorf("unexpected identity claims: %+v", claims)
	}
	if claims.Role != "admin" || claims.SubscriptionTier != "raid" {
		t.Errorf("unexpected role/tier: %s/%s", claims.Role, claims.SubscriptionTier)
	}
	if !claims.InGuild("guild_b") || claims.InGuild("guild_c") {
		t.Errorf("unexpected guilds: %v", claims.Guilds)
	}
	if claims.Subject != "u1" {
		t.Errorf("expected subject to default to user id, got %q", claims.Subject)
	}
}

func TestSign_SetsExpirationFromConfig(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(testClaims())
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if claims.ExpiresAt == nil {
		t.Fatal("expected exp claim to be set")
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 14*time.Minute || remaining > 15*time.Minute {
		t.Errorf("expected ~15m expiry, got %v", remaining)
	}
}

func TestValidate_Expired_ReturnsErrTokenExpired(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	claims := testClaims()
	claims.ExpiresAt = jwtlib.NewNumericDate(time.Now().Add(-1 * time.Second))
	token, err := svc.Sign(claims)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	_, err = svc.Validate(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Error("expired token must not also report ErrInvalidToken")
	}
}

func TestValidate_WrongSecret_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	other, err := NewService(Config{Secret: "another-secret"})
	if err != nil {
		t.Fatal(err)
	}
	token, err := other.Sign(testClaims())
	if err != nil {
		t.Fatal(err)
	}

	_, err = newTestService(t).Validate(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_ExpiredWithWrongSecret_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	other, err := NewService(Config{Secret: "another-secret"})
	if err != nil {
		t.Fatal(err)
	}
	claims := testClaims()
	claims.ExpiresAt = jwtlib.NewNumericDate(time.Now().Add(-1 * time.Hour))
	token, err := other.Sign(claims)
	if err != nil {
		t.Fatal(err)
	}

	_, err = newTestService(t).Validate(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for forged token, got %v", err)
	}
}

func TestValidate_Malformed_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	for _, token := range []string{"invalid.token.here", "bad.token", "garbage"} {
		if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestValidate_Empty_ReturnsErrNoToken(t *testing.T) {
	t.Parallel()
	if _, err := newTestService(t).Validate("  "); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}

func TestValidate_NoneAlgorithm_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, testClaims())
	unsigned, err := token.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := newTestService(t).Validate(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_MissingUserID_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	token, err := svc.Sign(Claims{Email: "nobody@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_IssuerMismatch_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	signer, _ := NewService(Config{Secret: testSecret, Issuer: "someone-else"})
	verifier, _ := NewService(Config{Secret: testSecret, Issuer: "questline"})

	token, err := signer.Sign(testClaims())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

// ============================================================================
// ParseBearer Tests
// ============================================================================

func TestParseBearer(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"empty", "", "", ErrNoToken},
		{"basic scheme", "Basic abc123", "", ErrNoToken},
		{"bearer only", "Bearer", "", ErrNoToken},
		{"bearer no space", "Bearertoken", "", ErrNoToken},
		{"bearer blank", "Bearer   ", "", ErrNoToken},
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"case insensitive", "bearer abc.def.ghi", "abc.def.ghi", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearer(tt.header)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSign_TokenHasThreeSegments(t *testing.T) {
	t.Parallel()
	token, err := newTestService(t).Sign(testClaims())
	if err != nil {
		t.Fatal(err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("expected 3 segments, got %d", len(parts))
	}
}
