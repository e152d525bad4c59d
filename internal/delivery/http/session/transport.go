// Package session moves session state between the server and the browser
// through cookies.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"gatekeeper/config"
)

const (
	// TokenCookieName carries the signed session token.
	TokenCookieName = "Authentication"

	// IDCookieName carries an opaque browser session id. It identifies the
	// browser, not the principal: it survives logout so activity before and
	// after can be correlated.
	IDCookieName = "Id"

	sessionIDLength = 32

	// idCookieMaxAge keeps the browser session id around well past any token.
	idCookieMaxAge = 365 * 24 * time.Hour
)

// Transport reads and writes the session cookies.
type Transport struct {
	domain   string
	secure   bool
	tokenTTL time.Duration
}

// NewTransport creates a cookie transport from configuration.
func NewTransport(cfg *config.Config) *Transport {
	domain := ""
	secure := false
	if cfg.Cookie != nil {
		domain = cfg.Cookie.Domain
		secure = cfg.Cookie.Secure
	}

	return &Transport{
		domain:   domain,
		secure:   secure,
		tokenTTL: cfg.JWT.TTL,
	}
}

// Attach sets the session token cookie and makes sure the browser carries a
// session id cookie.
func (t *Transport) Attach(c echo.Context, token string) {
	c.SetCookie(t.cookie(TokenCookieName, token, int(t.tokenTTL.Seconds())))
	t.EnsureID(c)
}

// Clear expires the token cookie. The browser session id survives logout so
// activity before and after can be correlated; one is minted if missing.
func (t *Transport) Clear(c echo.Context) {
	// MaxAge -1 makes net/http emit Max-Age=0, which deletes the cookie.
	c.SetCookie(t.cookie(TokenCookieName, "", -1))
	t.EnsureID(c)
}

// EnsureID returns the browser session id, minting and setting one when the
// request carries none.
func (t *Transport) EnsureID(c echo.Context) string {
	if cookie, err := c.Cookie(IDCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := newSessionID()
	c.SetCookie(t.cookie(IDCookieName, id, int(idCookieMaxAge.Seconds())))

	return id
}

// ExtractToken pulls the session token from the request, preferring a bearer
// Authorization header and falling back to the cookie.
func ExtractToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader && token != "" {
		return token, true
	}

	if cookie, err := c.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	return "", false
}

func (t *Transport) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   t.domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// newSessionID returns a url-safe id from 32 random bytes.
func newSessionID() string {
	buf := make([]byte, sessionIDLength)
	rand.Read(buf)

	return base64.RawURLEncoding.EncodeToString(buf)
}
