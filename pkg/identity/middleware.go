// Package identity extracts the account id from bearer tokens minted by the
// external identity service. It verifies signatures only; credentials, sign-up
// and session management live entirely outside this server.
package identity

import (
	"strings"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const ContextKeyUserID = "user_id"

type Middleware struct {
	secret []byte
}

func NewMiddleware(secret string) *Middleware {
	return &Middleware{secret: []byte(secret)}
}

// Authenticate validates the Authorization bearer token and stores its
// subject claim as the user id on the request context.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		token, err := jwt.Parse(raw, func(_ *jwt.Token) (interface{}, error) {
			return m.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return errcodes.Unauthorized("Token has no subject")
		}

		c.Set(ContextKeyUserID, sub)

		return next(c)
	}
}

// UserID returns the authenticated user id from the request context, or the
// empty string when the request was not authenticated.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextKeyUserID).(string)
	return id
}
