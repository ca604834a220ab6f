package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/apperr"
)

// ActorResolver loads the current actor for a verified user ID.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (*Actor, error)
}

// BearerAuth returns echo middleware that verifies the bearer token, resolves
// the actor and stores it in the request context.
func BearerAuth(verifier *TokenVerifier, resolver ActorResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			tokenString := extractBearerToken(req.Header.Get(echo.HeaderAuthorization))
			if tokenString == "" {
				return apperr.New(apperr.KindUnauthenticated, "missing bearer token")
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				zerolog.Ctx(ctx).Debug().Err(err).Msg("Token verification failed")
				return apperr.Wrap(apperr.KindUnauthenticated, err, "invalid token")
			}

			userID, err := claims.SubjectID()
			if err != nil {
				return apperr.Wrap(apperr.KindUnauthenticated, err, "invalid token")
			}

			actor, err := resolver.ResolveActor(ctx, userID)
			if err != nil {
				return err
			}

			logger := zerolog.Ctx(ctx).With().
				Str("user_id", actor.UserID.String()).
				Str("role", string(actor.Role)).
				Logger()

			ctx = logger.WithContext(WithActor(ctx, actor))
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

func extractBearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
