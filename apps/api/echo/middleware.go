package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/core/session"
)

const (
	contextSessionKey   = "session"
	contextConnectorKey = "connector"
	contextGatewayKey   = "gateway"
)

// sessionMiddleware loads the stored session of the JWT subject. Tokens outliving their session
// (e.g. after a restart with in-memory storage) are rejected so the user signs in again.
func sessionMiddleware(store session.Store, connector classroom.Connector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			sess, err := store.Get(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Cause(err) == session.ErrNotFound {
					return errSessionExpired
				}
				return errors.Wrap(err, "getting session")
			}
			ctx.Set(contextSessionKey, sess)
			ctx.Set(contextConnectorKey, connector)
			return next(ctx)
		}
	}
}

func roleMiddleware(roles ...classroom.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			for _, role := range roles {
				if sess.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func getContextSession(ctx echo.Context) (session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess, nil
	}
	return session.Session{}, errUnauthorized
}

// getContextGateway connects the request's session to Classroom on first use.
func getContextGateway(ctx echo.Context) (classroom.Gateway, error) {
	if gw, ok := ctx.Get(contextGatewayKey).(classroom.Gateway); ok {
		return gw, nil
	}
	sess, err := getContextSession(ctx)
	if err != nil {
		return nil, err
	}
	connector, ok := ctx.Get(contextConnectorKey).(classroom.Connector)
	if !ok {
		return nil, errors.New("no classroom connector in context")
	}
	gw, err := connector.Connect(ctx.Request().Context(), sess.Token)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to classroom")
	}
	ctx.Set(contextGatewayKey, gw)
	return gw, nil
}
