package router

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"clinicore/internal/auth"
	apperrors "clinicore/internal/errors"
	"clinicore/internal/model"
)

// principalKey is the context key under which RequireRoles stores the
// authenticated user.
const principalKey = "principal"

// PrincipalLoader resolves an authenticated subject to its user record.
type PrincipalLoader interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

// Authenticate is the first gate: it rejects requests without a valid access
// token and leaves the parsed claims on the context.
func Authenticate(accessSecret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(accessSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		// echo-jwt answers a missing token with 400; an absent credential is
		// an authentication failure, so both missing and invalid become 401.
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: "missing or invalid token",
				Code:  "UNAUTHORIZED",
			})
		},
	})
}

// RequireRoles is the second gate: it loads the user behind the token and
// denies the request unless the user's role is in the required set.
func RequireRoles(users PrincipalLoader, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: "missing or invalid token",
					Code:  "UNAUTHORIZED",
				})
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: "missing or invalid token",
					Code:  "UNAUTHORIZED",
				})
			}

			user, err := users.GetUser(c.Request().Context(), claims.UserID)
			if err != nil {
				// The subject of a valid token may have been deleted since
				// issuance; that is an authentication failure, not a 404.
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: "unknown token subject",
					Code:  "UNAUTHORIZED",
				})
			}

			for _, role := range roles {
				if user.Role == role {
					c.Set(principalKey, user)
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
				Error: apperrors.ErrForbidden.Error(),
				Code:  "FORBIDDEN",
			})
		}
	}
}

// Principal returns the user attached by RequireRoles, if any.
func Principal(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(principalKey).(*model.User)
	return user, ok
}
