package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartclinic/api/internal/platform/apperror"
)

type contextKey string

const (
	subjectKey contextKey = "auth_subject"
	actorKey   contextKey = "auth_actor"
)

// Actor is the request-scoped identity resolved from the verified
// token. It is rebuilt on every request; nothing about a prior
// request's role survives into the next one.
type Actor struct {
	ID      uuid.UUID
	Role    Role
	Subject string
}

// SubjectResolver resolves a token subject to an identity of the given
// role. Implemented by the identity service.
type SubjectResolver interface {
	ResolveSubject(ctx context.Context, subject string, role Role) (uuid.UUID, error)
}

// Middleware extracts and verifies a bearer token when one is present.
// A malformed or invalid token fails the request outright; requests
// without a token pass through so that public routes keep working, and
// RequireRole rejects them at protected routes.
func Middleware(tokens *Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return apperror.New(apperror.KindUnauthorized, "invalid authorization format")
			}

			subject, err := tokens.Verify(parts[1])
			if err != nil {
				return err
			}

			ctx := context.WithValue(c.Request().Context(), subjectKey, subject)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireRole admits the request when the verified subject resolves to
// an existing identity holding one of the given roles, and records the
// resolved actor on the request context. Missing token, unresolvable
// subject, and role mismatch are all Unauthorized per the boundary
// contract. Resolver failures other than a missing identity are not
// authorization outcomes and propagate as-is.
func RequireRole(resolver SubjectResolver, roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			subject, _ := ctx.Value(subjectKey).(string)
			if subject == "" {
				return apperror.New(apperror.KindUnauthorized, "missing or invalid token")
			}

			for _, role := range roles {
				id, err := resolver.ResolveSubject(ctx, subject, role)
				if err != nil {
					if apperror.Is(err, apperror.KindNotFound) {
						continue
					}
					return err
				}
				actor := Actor{ID: id, Role: role, Subject: subject}
				c.SetRequest(c.Request().WithContext(WithActor(ctx, actor)))
				return next(c)
			}
			return apperror.New(apperror.KindUnauthorized, "token does not match an identity for this role")
		}
	}
}

// WithActor records a resolved actor on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the actor resolved by RequireRole.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

// SubjectFromContext returns the verified token subject, if any.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}
