package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AdminCookieName = "admin_session"
	AdminSessionAge = 24 * time.Hour
)

func adminSecret() []byte {
	secret := os.Getenv("ADMIN_SESSION_SECRET")
	if secret == "" {
		secret = "webcraft_admin_secret"
	}
	return []byte(secret)
}

// SignAdminSession produces a "timestamp:signature" cookie value. The
// signature covers the timestamp, so expiry cannot be forged forward.
func SignAdminSession(issuedAt time.Time) string {
	ts := strconv.FormatInt(issuedAt.Unix(), 10)
	mac := hmac.New(sha256.New, adminSecret())
	mac.Write([]byte(ts))
	return ts + ":" + hex.EncodeToString(mac.Sum(nil))
}

// ValidateAdminSession checks the signature and age of a session cookie.
func ValidateAdminSession(value string) bool {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return false
	}

	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false
	}
	if time.Since(time.Unix(ts, 0)) > AdminSessionAge {
		return false
	}

	mac := hmac.New(sha256.New, adminSecret())
	mac.Write([]byte(parts[0]))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(parts[1]))
}

// AdminAuth guards the operator endpoints with the session cookie issued
// at login.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(AdminCookieName)
		if err != nil || !ValidateAdminSession(cookie) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}
