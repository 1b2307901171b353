package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anayy09/Navigator-AI-Console/internal/security"
	"github.com/gin-gonic/gin"
)

const (
	testSessionSecret = "session-secret"
	testAnonSecret    = "anon-secret"
)

func newTestContext(t *testing.T, req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func anonCookieFromResponse(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == AnonCookieName {
			return cookie
		}
	}
	return nil
}

func TestResolveMintsAnonCookieWhenAbsent(t *testing.T) {
	resolver := NewResolver(testSessionSecret, testAnonSecret)
	c, w := newTestContext(t, httptest.NewRequest(http.MethodGet, "/api/usage", nil))

	id := resolver.Resolve(c)

	if id.Kind != KindAnonymous {
		t.Fatalf("expected anonymous identity, got %s", id.Kind)
	}
	if id.Key == "" || id.Key == "anon-fallback" {
		t.Fatalf("expected a minted token key, got %q", id.Key)
	}

	cookie := anonCookieFromResponse(t, w)
	if cookie == nil {
		t.Fatalf("expected %s cookie on response", AnonCookieName)
	}
	if !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly cookie")
	}
	claims, errParse := security.ParseAnonToken(testAnonSecret, cookie.Value)
	if errParse != nil {
		t.Fatalf("minted cookie should verify: %v", errParse)
	}
	if claims.ID != id.Key {
		t.Fatalf("cookie token ID %q should match identity key %q", claims.ID, id.Key)
	}
}

func TestResolveMintsFreshCookieWhenInvalid(t *testing.T) {
	resolver := NewResolver(testSessionSecret, testAnonSecret)
	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "forged-token"})
	c, w := newTestContext(t, req)

	id := resolver.Resolve(c)

	if id.Kind != KindAnonymous {
		t.Fatalf("expected anonymous identity, got %s", id.Kind)
	}
	cookie := anonCookieFromResponse(t, w)
	if cookie == nil {
		t.Fatalf("expected a fresh cookie for an invalid token")
	}
	if cookie.Value == "forged-token" {
		t.Fatalf("forged cookie must be replaced")
	}
	if _, errParse := security.ParseAnonToken(testAnonSecret, cookie.Value); errParse != nil {
		t.Fatalf("replacement cookie should verify: %v", errParse)
	}
}

func TestResolveReusesValidAnonCookie(t *testing.T) {
	resolver := NewResolver(testSessionSecret, testAnonSecret)

	first, firstW := newTestContext(t, httptest.NewRequest(http.MethodGet, "/api/usage", nil))
	firstID := resolver.Resolve(first)
	cookie := anonCookieFromResponse(t, firstW)
	if cookie == nil {
		t.Fatalf("expected cookie from first request")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: cookie.Value})
	second, secondW := newTestContext(t, req)
	secondID := resolver.Resolve(second)

	if secondID.Key != firstID.Key {
		t.Fatalf("expected stable key across requests, got %q then %q", firstID.Key, secondID.Key)
	}
	if anonCookieFromResponse(t, secondW) != nil {
		t.Fatalf("valid cookie must not be reissued")
	}
}

func TestResolvePrefersSessionToken(t *testing.T) {
	resolver := NewResolver(testSessionSecret, testAnonSecret)
	token, errToken := security.GenerateSessionToken(testSessionSecret, 42, "a@b.dev", "a", security.AnonTokenLifetime)
	if errToken != nil {
		t.Fatalf("generate session token: %v", errToken)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c, w := newTestContext(t, req)

	id := resolver.Resolve(c)

	if !id.IsAccount() {
		t.Fatalf("expected account identity, got %s", id.Kind)
	}
	if id.UserID != 42 || id.Key != "user:42" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if anonCookieFromResponse(t, w) != nil {
		t.Fatalf("authenticated requests must not set anon cookies")
	}
}

func TestResolveIgnoresInvalidSessionToken(t *testing.T) {
	resolver := NewResolver(testSessionSecret, testAnonSecret)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	c, _ := newTestContext(t, req)

	id := resolver.Resolve(c)

	if id.Kind != KindAnonymous {
		t.Fatalf("invalid session should fall back to anonymous, got %s", id.Kind)
	}
}
