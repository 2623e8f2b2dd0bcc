package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/model"
	"github.com/forgo/questline/internal/policy"
	"github.com/forgo/questline/pkg/jwt"
)

// ============================================================================
// Mock TokenVerifier
// ============================================================================

type mockVerifier struct {
	validateFunc func(token string) (*jwt.Claims, error)
}

func (m *mockVerifier) ValidateAccessToken(token string) (*jwt.Claims, error) {
	return m.validateFunc(token)
}

// successVerifier returns the given claims for any token
func successVerifier(claims jwt.Claims) *mockVerifier {
	return &mockVerifier{
		validateFunc: func(token string) (*jwt.Claims, error) {
			c := claims
			return &c, nil
		},
	}
}

// errorVerifier returns the specified error
func errorVerifier(err error) *mockVerifier {
	return &mockVerifier{
		validateFunc: func(token string) (*jwt.Claims, error) {
			return nil, err
		},
	}
}

// ============================================================================
// Test Helpers
// ============================================================================

func testClaims() jwt.Claims {
	return jwt.Claims{
		UserID:           "user:123",
		Email:            "test@example.com",
		Role:             model.RoleMember,
		SubscriptionTier: policy.TierCoreQuest,
		Guilds:           []string{"guild:1"},
	}
}

func testErrors() *apperror.Normalizer {
	n := apperror.NewNormalizer(false)
	n.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	n.RequestAttrs = LogAttrs
	return n
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) apperror.Envelope {
	t.Helper()
	var env apperror.Envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return env
}

func newTestRequest(authHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

// captureHandler captures the request context for inspection
type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

// ============================================================================
// Auth() Middleware Tests
// ============================================================================

func TestAuth_HeaderProblems_ReturnNoToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic sometoken"},
		{"bearer only", "Bearer"},
		{"bearer no space", "Bearertoken"},
		{"bearer blank token", "Bearer   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verifier := successVerifier(testClaims())
			handler := &captureHandler{}
			rr := httptest.NewRecorder()

			Auth(verifier, testErrors())(handler).ServeHTTP(rr, newTestRequest(tt.header))

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
			}
			if handler.called {
				t.Error("handler should not have been called")
			}
			env := decodeEnvelope(t, rr)
			if env.Error != apperror.CodeNoToken {
				t.Errorf("expected code %s, got %q", apperror.CodeNoToken, env.Error)
			}
			if env.Success {
				t.Error("expected success=false")
			}
		})
	}
}

func TestAuth_VerifierErrors_MapToCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"expired", jwt.ErrTokenExpired, apperror.CodeTokenExpired},
		{"invalid", jwt.ErrInvalidToken, apperror.CodeInvalidToken},
		{"wrapped invalid", fmt.Errorf("%w: signature is invalid", jwt.ErrInvalidToken), apperror.CodeInvalidToken},
		{"unknown error", errors.New("boom"), apperror.CodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := &captureHandler{}
			rr := httptest.NewRecorder()

			Auth(errorVerifier(tt.err), testErrors())(handler).ServeHTTP(rr, newTestRequest("Bearer some-token"))

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
			}
			if handler.called {
				t.Error("handler should not have been called")
			}
			if code := decodeEnvelope(t, rr).Error; code != tt.code {
				t.Errorf("expected code %s, got %q", tt.code, code)
			}
		})
	}
}

func TestAuth_ValidToken_AttachesExactIdentity(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	Auth(successVerifier(testClaims()), testErrors())(handler).ServeHTTP(rr, newTestRequest("Bearer valid-token"))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !handler.called {
		t.Fatal("handler should have been called")
	}

	want := model.Identity{
		ID:               "user:123",
		Email:            "test@example.com",
		Role:             model.RoleMember,
		SubscriptionTier: policy.TierCoreQuest,
	}
	got := GetIdentity(handler.ctx)
	if got == nil {
		t.Fatal("expected identity in context")
	}
	if *got != want {
		t.Errorf("expected identity %+v, got %+v", want, *got)
	}
	if GetUserID(handler.ctx) != "user:123" {
		t.Errorf("expected UserID 'user:123', got %q", GetUserID(handler.ctx))
	}
}

func TestAuth_PassesTokenToVerifier(t *testing.T) {
	t.Parallel()
	var received string
	verifier := &mockVerifier{
		validateFunc: func(token string) (*jwt.Claims, error) {
			received = token
			c := testClaims()
			return &c, nil
		},
	}

	Auth(verifier, testErrors())(&captureHandler{}).ServeHTTP(httptest.NewRecorder(), newTestRequest("bearer abc.def.ghi"))

	if received != "abc.def.ghi" {
		t.Errorf("expected token 'abc.def.ghi', got %q", received)
	}
}

func TestAuth_SetsClaims_InContext(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}

	Auth(successVerifier(testClaims()), testErrors())(handler).ServeHTTP(httptest.NewRecorder(), newTestRequest("Bearer valid-token"))

	claims := GetClaims(handler.ctx)
	if claims == nil {
		t.Fatal("expected claims in context")
	}
	if !claims.InGuild("guild:1") {
		t.Error("expected guild claim to be preserved")
	}
}

// ============================================================================
// OptionalAuth() Middleware Tests
// ============================================================================

func TestOptionalAuth_NeverHalts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		verifier *mockVerifier
	}{
		{"no header", "", successVerifier(testClaims())},
		{"wrong scheme", "Basic abc", successVerifier(testClaims())},
		{"invalid token", "Bearer bad", errorVerifier(jwt.ErrInvalidToken)},
		{"expired token", "Bearer old", errorVerifier(jwt.ErrTokenExpired)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := &captureHandler{}
			rr := httptest.NewRecorder()

			OptionalAuth(tt.verifier)(handler).ServeHTTP(rr, newTestRequest(tt.header))

			if !handler.called {
				t.Error("handler should have been called")
			}
			if rr.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
			}
			if GetIdentity(handler.ctx) != nil {
				t.Error("expected no identity in context")
			}
		})
	}
}

func TestOptionalAuth_ValidToken_SetsContext(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}

	OptionalAuth(successVerifier(testClaims()))(handler).ServeHTTP(httptest.NewRecorder(), newTestRequest("Bearer valid-token"))

	identity := GetIdentity(handler.ctx)
	if identity == nil {
		t.Fatal("expected identity in context")
	}
	if identity.ID != "user:123" {
		t.Errorf("expected ID 'user:123', got %q", identity.ID)
	}
}

// ============================================================================
// Authorize() / RequireTier() Middleware Tests
// ============================================================================

func withIdentity(claims jwt.Claims) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	return req.WithContext(WithClaims(req.Context(), &claims))
}

func TestAuthorize_NoIdentity_ReturnsNotAuthenticated(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	Authorize(testErrors(), model.RoleAdmin)(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if code := decodeEnvelope(t, rr).Error; code != apperror.CodeNotAuthenticated {
		t.Errorf("expected code %s, got %q", apperror.CodeNotAuthenticated, code)
	}
	if handler.called {
		t.Error("handler should not have been called")
	}
}

func TestAuthorize_WrongRole_ReturnsForbidden(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	Authorize(testErrors(), model.RoleAdmin)(handler).ServeHTTP(rr, withIdentity(testClaims()))

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}
	if code := decodeEnvelope(t, rr).Error; code != apperror.CodeForbidden {
		t.Errorf("expected code %s, got %q", apperror.CodeForbidden, code)
	}
}

func TestAuthorize_AllowedRole_CallsNext(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	claims := testClaims()
	claims.Role = model.RoleAdmin

	Authorize(testErrors(), model.RoleModerator, model.RoleAdmin)(handler).ServeHTTP(httptest.NewRecorder(), withIdentity(claims))

	if !handler.called {
		t.Error("handler should have been called")
	}
}

func TestRequireTier_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		tier     string
		minTiers []string
		status   int
	}{
		{"below floor", policy.TierFree, []string{policy.TierPotion}, http.StatusForbidden},
		{"equal to floor", policy.TierPotion, []string{policy.TierPotion}, http.StatusOK},
		{"above floor", policy.TierRaid, []string{policy.TierPotion}, http.StatusOK},
		{"multi-tier uses lowest", policy.TierPotion, []string{policy.TierRaid, policy.TierPotion}, http.StatusOK},
		{"unknown tier is free", "platinum", []string{policy.TierPotion}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims := testClaims()
			claims.SubscriptionTier = tt.tier
			rr := httptest.NewRecorder()

			RequireTier(policy.DefaultTiers(), testErrors(), tt.minTiers...)(&captureHandler{}).ServeHTTP(rr, withIdentity(claims))

			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rr.Code)
			}
			if tt.status == http.StatusForbidden {
				if code := decodeEnvelope(t, rr).Error; code != apperror.CodeUpgradeRequired {
					t.Errorf("expected code %s, got %q", apperror.CodeUpgradeRequired, code)
				}
			}
		})
	}
}

func TestRequireTier_NoIdentity_ReturnsNotAuthenticated(t *testing.T) {
	t.Parallel()
	rr := httptest.NewRecorder()

	RequireTier(policy.DefaultTiers(), testErrors(), policy.TierPotion)(&captureHandler{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

// ============================================================================
// Authenticate / Context Helper Tests
// ============================================================================

func TestAuthenticate_ReturnsIdentity(t *testing.T) {
	t.Parallel()

	identity, claims, err := Authenticate(successVerifier(testClaims()), "Bearer token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.ID != "user:123" || claims.UserID != "user:123" {
		t.Errorf("unexpected identity %+v", identity)
	}
}

func TestAuthenticate_Failure_ReturnsAppError(t *testing.T) {
	t.Parallel()

	_, _, err := Authenticate(errorVerifier(jwt.ErrTokenExpired), "Bearer token")

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.Error, got %T", err)
	}
	if appErr.Code != apperror.CodeTokenExpired {
		t.Errorf("expected code %s, got %q", apperror.CodeTokenExpired, appErr.Code)
	}
}

func TestGetIdentity_Missing_ReturnsNil(t *testing.T) {
	t.Parallel()
	if GetIdentity(context.Background()) != nil {
		t.Error("expected nil identity")
	}
}

func TestGetIdentity_WrongType_ReturnsNil(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), IdentityKey, "not-an-identity")
	if GetIdentity(ctx) != nil {
		t.Error("expected nil identity for wrong type")
	}
}

func TestGetUserID_Missing_ReturnsEmpty(t *testing.T) {
	t.Parallel()
	if id := GetUserID(context.Background()); id != "" {
		t.Errorf("expected empty user ID, got %q", id)
	}
}

func TestGetClaims_Missing_ReturnsNil(t *testing.T) {
	t.Parallel()
	if GetClaims(context.Background()) != nil {
		t.Error("expected nil claims")
	}
}
