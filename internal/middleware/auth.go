package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	adapter "github.com/gwatts/gin-adapter"
)

// Auth validates RS256 bearer tokens issued by the Auth0 tenant and stores
// the claims in the request context.
func Auth(domain, audience string) (gin.HandlerFunc, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing issuer URL: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
	)
	if err != nil {
		return nil, fmt.Errorf("setting up JWT validator: %w", err)
	}

	mw := jwtmiddleware.New(jwtValidator.ValidateToken)
	return adapter.Wrap(mw.CheckJWT), nil
}

// GetAuth0ID extracts the authenticated subject (the Auth0 user ID) from the
// validated claims.
func GetAuth0ID(c *gin.Context) (string, bool) {
	claims, ok := c.Request.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok {
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}

// FakeAuth stamps a fixed subject into the request context the same way the
// real middleware does. Test use only.
func FakeAuth(subject string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: subject},
		}
		ctx := context.WithValue(c.Request.Context(), jwtmiddleware.ContextKey{}, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// BearerToken pulls the raw access token off the Authorization header, for
// calls that need to relay it (the userinfo profile fetch).
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
