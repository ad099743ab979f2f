package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/moviemaster/internal/domain"
	domuser "github.com/kailas-cloud/moviemaster/internal/domain/user"
)

type stubVerifier struct {
	tokens map[string]domuser.Identity
}

func (v stubVerifier) Verify(token string) (domuser.Identity, error) {
	id, ok := v.tokens[token]
	if !ok {
		return domuser.Identity{}, domain.ErrUnauthorized
	}
	return id, nil
}

func newStubVerifier() stubVerifier {
	return stubVerifier{tokens: map[string]domuser.Identity{
		"good": {UserID: "u1", Email: "neo@example.com", Name: "Neo"},
	}}
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(id.UserID))
	})
}

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	handler := BearerAuthMiddleware(newStubVerifier())(identityEcho())

	req := httptest.NewRequest("GET", "/api/me/recent-searches", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("missing header: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeUnauthorized {
		t.Errorf("error code: got %s, want %s", errResp.Code, CodeUnauthorized)
	}
}

func TestAuthMiddleware_BasicScheme_401(t *testing.T) {
	handler := BearerAuthMiddleware(newStubVerifier())(identityEcho())

	req := httptest.NewRequest("GET", "/api/me/recent-searches", http.NoBody)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("basic scheme: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_401(t *testing.T) {
	handler := BearerAuthMiddleware(newStubVerifier())(identityEcho())

	req := httptest.NewRequest("GET", "/api/me/recent-searches", http.NoBody)
	req.Header.Set("Authorization", "Bearer forged")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_ValidToken_SetsIdentity(t *testing.T) {
	handler := BearerAuthMiddleware(newStubVerifier())(identityEcho())

	req := httptest.NewRequest("GET", "/api/me/recent-searches", http.NoBody)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("valid token: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "u1" {
		t.Errorf("identity = %q, want u1", got)
	}
}

func TestIdentityFromContext_Absent(t *testing.T) {
	req := httptest.NewRequest("GET", "/", http.NoBody)
	if _, ok := IdentityFromContext(req.Context()); ok {
		t.Fatal("expected no identity")
	}
}
