package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/services/classroom"
)

func Test_home(t *testing.T) {
	now := time.Date(2024, 12, 2, 12, 0, 0, 0, time.UTC)
	f := setup(t, now)

	t.Run("health", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: []byte(`{"status": "OK", "timestamp": "2024-12-02T12:00:00Z", "environment": "TEST"}`)}
		req, rec := newRequest(http.MethodGet, "/health")
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("welcome", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/")
		f.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Welcome to Semillero Digital API!", rec.Body.String())
	})
}

// startSignIn hits /auth/google and returns the state cookie and the state sent to Google.
func startSignIn(t *testing.T, f *fixture) (*http.Cookie, string) {
	t.Helper()
	req, rec := newRequest(http.MethodGet, "/auth/google")
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.test", loc.Host)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0], state
}

func callback(f *fixture, cookie *http.Cookie, query url.Values) *httptest.ResponseRecorder {
	req, rec := newRequest(http.MethodGet, "/auth/callback?"+query.Encode())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	f.app.ServeHTTP(rec, req)
	return rec
}

func frontendRedirect(t *testing.T, f *fixture, rec *httptest.ResponseRecorder) url.Values {
	t.Helper()
	require.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, f.conf.FrontendBaseURL+"?"), loc)
	u, err := url.Parse(loc)
	require.NoError(t, err)
	return u.Query()
}

func Test_authApi_signIn(t *testing.T) {
	f := setup(t, time.Now())
	f.gw.AddCourse(classroom.TeachingCourses, classroom.Course{ID: "c1", Name: "Programación Web"})
	f.auth.User = classroomsvc.UserInfo{ID: "t1", Email: " Tom@Test.edu", Name: "Tom", Picture: "https://pics.test/tom.png"}

	t.Run("state required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid oauth state"})}
		checkCodeAndData(t, tt, callback(f, nil, url.Values{"code": {"abc"}, "state": {"forged"}}))
	})

	t.Run("state mismatch", func(t *testing.T) {
		cookie, _ := startSignIn(t, f)
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid oauth state"})}
		checkCodeAndData(t, tt, callback(f, cookie, url.Values{"code": {"abc"}, "state": {"forged"}}))
	})

	t.Run("no code", func(t *testing.T) {
		cookie, state := startSignIn(t, f)
		q := frontendRedirect(t, f, callback(f, cookie, url.Values{"state": {state}}))
		assert.Equal(t, "no_code", q.Get("error"))
	})

	t.Run("exchange failed", func(t *testing.T) {
		f.auth.ExchangeErr = assert.AnError
		defer func() { f.auth.ExchangeErr = nil }()

		cookie, state := startSignIn(t, f)
		q := frontendRedirect(t, f, callback(f, cookie, url.Values{"state": {state}, "code": {"abc"}}))
		assert.Equal(t, "auth_failed", q.Get("error"))
		assert.Zero(t, f.sessions.Len(context.Background()))
	})

	t.Run("signed in", func(t *testing.T) {
		cookie, state := startSignIn(t, f)
		q := frontendRedirect(t, f, callback(f, cookie, url.Values{"state": {state}, "code": {"abc"}}))
		assert.Equal(t, "success", q.Get("auth"))
		token := q.Get("token")
		require.NotEmpty(t, token)

		sess, err := f.sessions.Get(context.Background(), "tom@test.edu")
		require.NoError(t, err)
		assert.Equal(t, "t1", sess.UserID)
		assert.Equal(t, classroom.RoleTeacher, sess.Role)
		assert.Equal(t, "access-abc", sess.Token.AccessToken)

		// the token is good for the API
		req, rec := newAuthRequest(http.MethodGet, "/auth/me", token)
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, sess)}, rec)
	})
}

func Test_authApi_coordinatorRole(t *testing.T) {
	f := setup(t, time.Now())
	f.auth.User = classroomsvc.UserInfo{ID: "c1", Email: "coord@test.edu", Name: "Coord"}

	cookie, state := startSignIn(t, f)
	q := frontendRedirect(t, f, callback(f, cookie, url.Values{"state": {state}, "code": {"xyz"}}))
	require.Equal(t, "success", q.Get("auth"))

	sess, err := f.sessions.Get(context.Background(), "coord@test.edu")
	require.NoError(t, err)
	assert.Equal(t, classroom.RoleCoordinator, sess.Role)
}

func Test_authApi_meAndLogout(t *testing.T) {
	f := setup(t, time.Now())
	token := f.signIn(t, ana)

	tests := []httpTest{
		{name: "me (auth required)", path: "/auth/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "me", path: "/auth/me", token: token, wantData: marchallObj(t, ana)},
		{
			name: "me (bad token)", path: "/auth/me", token: token + "x",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{name: "logout", method: http.MethodPost, path: "/auth/logout", token: token, wantData: []byte(`{"message": "signed out"}`)},
		// reminders keep running after logout
		{name: "session kept", path: "/auth/me", token: token, wantData: marchallObj(t, ana)},
	}
	runHTTPTests(t, f.app, tests)
}
