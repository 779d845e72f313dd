package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/labtrack/labtrack/internal/platform/apperror"
)

type contextKey string

const claimsKey contextKey = "identity_claims"

// ClaimsFromContext returns the verified identity claims attached to the
// request, or nil for anonymous requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// UserIDFromContext returns the acting user's id for query scoping, or
// nil for anonymous requests.
func UserIDFromContext(ctx context.Context) *int {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return nil
	}
	id := claims.UserID
	return &id
}

func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func attachClaims(c echo.Context, claims *Claims) {
	ctx := context.WithValue(c.Request().Context(), claimsKey, claims)
	c.SetRequest(c.Request().WithContext(ctx))
}

// RequireAuth returns middleware that rejects requests without a valid
// bearer token. Verified claims are attached to the request context.
func RequireAuth(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, ok := bearerToken(c)
			if !ok {
				return apperror.Auth("Missing or malformed authorization header")
			}

			claims, err := issuer.Verify(tokenStr)
			if err != nil {
				return apperror.Auth("Invalid or expired token")
			}

			attachClaims(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth returns middleware that attaches claims when a valid
// bearer token is present and lets the request through anonymously
// otherwise. A malformed or expired token is still rejected so that a
// client never silently falls back to anonymous scope.
func OptionalAuth(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, ok := bearerToken(c)
			if !ok {
				return next(c)
			}

			claims, err := issuer.Verify(tokenStr)
			if err != nil {
				return apperror.Auth("Invalid or expired token")
			}

			attachClaims(c, claims)
			return next(c)
		}
	}
}

// RequireRoleIfAuthenticated returns middleware for surfaces that stay
// open to anonymous requests but restrict authenticated writers: no
// claim passes through, a claim must carry one of the allowed roles.
func RequireRoleIfAuthenticated(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ClaimsFromContext(c.Request().Context()) == nil {
				return next(c)
			}
			return RequireRole(roles...)(next)(c)
		}
	}
}

// RequireRole returns middleware that checks the authenticated user's
// role against the allowed set. The admin role always passes. Anonymous
// requests are rejected.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromContext(c.Request().Context())
			if claims == nil {
				return apperror.Auth("Authentication required")
			}
			if claims.Role == "admin" {
				return next(c)
			}
			for _, required := range roles {
				if claims.Role == required {
					return next(c)
				}
			}
			return apperror.Forbidden("required role: %s", strings.Join(roles, " or "))
		}
	}
}
