package identity

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/anayy09/Navigator-AI-Console/internal/security"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AnonCookieName is the cookie carrying the anonymous identity token.
const AnonCookieName = "anon_token"

// anonCookieMaxAge matches the token lifetime in seconds.
const anonCookieMaxAge = int(security.AnonTokenLifetime / 1e9)

// Resolver derives a caller identity from an inbound request. Resolution
// never fails: callers without a valid session or cookie get a freshly
// minted anonymous identity.
type Resolver struct {
	sessionSecret string
	anonSecret    string
}

// NewResolver constructs a Resolver.
func NewResolver(sessionSecret, anonSecret string) *Resolver {
	return &Resolver{sessionSecret: sessionSecret, anonSecret: anonSecret}
}

// Resolve returns the identity for the request, minting and setting an
// anonymous cookie when no valid identity is present.
func (r *Resolver) Resolve(c *gin.Context) Identity {
	if id, ok := r.resolveSession(c); ok {
		return id
	}
	return r.resolveAnonymous(c)
}

// resolveSession checks for a valid bearer session JWT.
func (r *Resolver) resolveSession(c *gin.Context) (Identity, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return Identity{}, false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return Identity{}, false
	}
	claims, errJWT := security.ParseSessionToken(r.sessionSecret, strings.TrimSpace(token))
	if errJWT != nil {
		return Identity{}, false
	}
	return Identity{
		Kind:   KindAccount,
		Key:    fmt.Sprintf("user:%d", claims.UserID),
		UserID: claims.UserID,
	}, true
}

// resolveAnonymous reuses a valid anonymous cookie or mints a new one.
func (r *Resolver) resolveAnonymous(c *gin.Context) Identity {
	if cookie, errCookie := c.Cookie(AnonCookieName); errCookie == nil && cookie != "" {
		if claims, errParse := security.ParseAnonToken(r.anonSecret, cookie); errParse == nil {
			return Identity{Kind: KindAnonymous, Key: claims.ID}
		}
	}

	token, errMint := security.GenerateAnonToken(r.anonSecret)
	if errMint != nil {
		// Signing only fails on a broken secret; fall back to a throwaway
		// identity so the request still resolves.
		log.WithError(errMint).Error("mint anon token failed")
		return Identity{Kind: KindAnonymous, Key: "anon-fallback"}
	}
	claims, errParse := security.ParseAnonToken(r.anonSecret, token)
	if errParse != nil {
		log.WithError(errParse).Error("parse minted anon token failed")
		return Identity{Kind: KindAnonymous, Key: "anon-fallback"}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AnonCookieName, token, anonCookieMaxAge, "/", "", c.Request.TLS != nil, true)
	return Identity{Kind: KindAnonymous, Key: claims.ID}
}
