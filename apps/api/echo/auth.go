package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/core/reminder"
	"github.com/trezcool/semillero/core/session"
	classroomsvc "github.com/trezcool/semillero/services/classroom"
)

const (
	jwtContextKey    = "userToken"
	jwtAudience      = "Semillero"
	stateCookie      = "oauth_state"
	stateKey         = "state"
	stateCookieTTL   = 10 * 60 // seconds
	callbackTokenKey = "token"
)

// Authenticator runs Google sign-in and connects the resulting tokens to Classroom.
type Authenticator interface {
	classroom.Connector
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, tok *oauth2.Token) (classroomsvc.UserInfo, error)
}

// Claims represents the authorization claims transmitted via a JWT. Subject is the user's email.
type Claims struct {
	jwt.StandardClaims
	UserID string         `json:"uid,omitempty"`
	Name   string         `json:"name,omitempty"`
	Role   classroom.Role `json:"role,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}
}

func GetSessionClaims(conf *core.Config, sess session.Session, now time.Time) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   sess.Identity,
			Audience:  jwtAudience,
			ExpiresAt: now.Add(conf.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		UserID: sess.UserID,
		Name:   sess.Name,
		Role:   sess.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	method := jwt.GetSigningMethod(jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

type authApi struct {
	conf      *core.Config
	logger    core.Logger
	clock     core.Clock
	auth      Authenticator
	cookies   sessions.Store
	reminders *reminder.Service
	classroom *classroom.Service
}

func registerAuthAPI(g *echo.Group, s *Server) {
	api := authApi{
		conf:      s.deps.Conf,
		logger:    s.deps.Logger,
		clock:     s.deps.Clock,
		auth:      s.deps.Auth,
		cookies:   s.cookies,
		reminders: s.deps.Reminders,
		classroom: s.deps.Classroom,
	}

	// un-authed endpoints
	g.GET("/google", api.signIn)
	g.GET("/callback", api.callback)

	// authed endpoints
	ag := g.Group("", s.jwt)
	ag.GET("/me", api.me, sessionMiddleware(s.deps.Sessions, s.deps.Auth))
	ag.POST("/logout", api.logout)
}

// Handlers

func (api *authApi) signIn(ctx echo.Context) error {
	state := uuid.NewString()

	cookie, _ := api.cookies.Get(ctx.Request(), stateCookie) // a bad cookie yields a fresh one
	cookie.Options = &sessions.Options{
		Path:     "/auth",
		MaxAge:   stateCookieTTL,
		HttpOnly: true,
		Secure:   !api.conf.Debug,
		SameSite: http.SameSiteLaxMode,
	}
	cookie.Values[stateKey] = state
	if err := cookie.Save(ctx.Request(), ctx.Response()); err != nil {
		return errors.Wrap(err, "saving oauth state")
	}
	return ctx.Redirect(http.StatusFound, api.auth.AuthCodeURL(state))
}

// callback finishes sign-in: it stores the session used by the reminder scheduler and
// hands the frontend a JWT for the API.
func (api *authApi) callback(ctx echo.Context) error {
	if err := api.checkState(ctx); err != nil {
		return err
	}
	code := ctx.QueryParam("code")
	if code == "" {
		return api.redirect(ctx, url.Values{"error": {"no_code"}})
	}

	sess, err := api.authorize(ctx.Request().Context(), code)
	if err != nil {
		api.logger.Error(fmt.Sprintf("sign-in failed: %v", err), err)
		return api.redirect(ctx, url.Values{"error": {"auth_failed"}})
	}

	token, err := GenerateToken(api.conf, GetSessionClaims(api.conf, sess, api.clock.Now()))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	api.logger.Info(fmt.Sprintf("user signed in: %s (%s)", sess.Identity, sess.Role), sess)
	return api.redirect(ctx, url.Values{"auth": {"success"}, callbackTokenKey: {token}})
}

func (api *authApi) checkState(ctx echo.Context) error {
	cookie, err := api.cookies.Get(ctx.Request(), stateCookie)
	if err != nil {
		return errInvalidOAuthReq
	}
	want, _ := cookie.Values[stateKey].(string)
	if want == "" || want != ctx.QueryParam("state") {
		return errInvalidOAuthReq
	}
	// expire the state cookie
	cookie.Options = &sessions.Options{Path: "/auth", MaxAge: -1}
	delete(cookie.Values, stateKey)
	return errors.Wrap(cookie.Save(ctx.Request(), ctx.Response()), "clearing oauth state")
}

func (api *authApi) authorize(ctx context.Context, code string) (session.Session, error) {
	tok, err := api.auth.Exchange(ctx, code)
	if err != nil {
		return session.Session{}, err
	}
	info, err := api.auth.UserInfo(ctx, tok)
	if err != nil {
		return session.Session{}, err
	}
	gw, err := api.auth.Connect(ctx, tok)
	if err != nil {
		return session.Session{}, err
	}

	sess := session.Session{
		Identity:  core.CleanString(info.Email, true),
		UserID:    info.ID,
		Name:      info.Name,
		Picture:   info.Picture,
		Role:      api.classroom.ResolveRole(ctx, gw, info.Email),
		Token:     tok,
		CreatedAt: api.clock.Now().UTC(),
	}
	if err = api.reminders.RegisterSession(ctx, sess); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func (api *authApi) redirect(ctx echo.Context, q url.Values) error {
	return ctx.Redirect(http.StatusFound, api.conf.FrontendBaseURL+"?"+q.Encode())
}

func (api *authApi) me(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

// logout only ends the API session on the client side; the scheduler keeps the stored session
// so reminders continue.
func (api *authApi) logout(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": "signed out"})
}
