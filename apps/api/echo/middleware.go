package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/policy"
)

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(policy.RoleAdmin)
}

// roleMiddleware short-circuits requests from callers outside the given
// roles. Fine-grained decisions still happen in the services.
func roleMiddleware(roles ...policy.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, role := range roles {
				if policy.Role(claims.Role) == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
