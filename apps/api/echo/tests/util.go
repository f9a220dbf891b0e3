package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/trezcool/semillero/apps/api/echo"
	"github.com/trezcool/semillero/assets"
	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/core/classroom/classroomtest"
	"github.com/trezcool/semillero/core/profile"
	"github.com/trezcool/semillero/core/reminder"
	"github.com/trezcool/semillero/core/session"
	"github.com/trezcool/semillero/services/chat"
	"github.com/trezcool/semillero/services/classroom"
	"github.com/trezcool/semillero/services/email"
	"github.com/trezcool/semillero/storage/database/inmem"
)

var (
	errMissingToken   = httpErr{Error: "missing or malformed jwt"}
	errSessionExpired = httpErr{Error: "session expired, sign in again"}
	errForbidden      = httpErr{Error: "permission denied"}

	ana   = session.Session{Identity: "ana@test.edu", UserID: "s1", Name: "Ana", Role: classroom.RoleStudent}
	tom   = session.Session{Identity: "tom@test.edu", UserID: "t1", Name: "Tom", Role: classroom.RoleTeacher}
	coord = session.Session{Identity: "coord@test.edu", UserID: "c1", Name: "Coord", Role: classroom.RoleCoordinator}
)

// fakeAuth signs everyone in as User and connects every token to the same gateway.
type fakeAuth struct {
	*classroomtest.Connector
	User        classroomsvc.UserInfo
	ExchangeErr error
}

var _ echoapi.Authenticator = (*fakeAuth)(nil)

func (a *fakeAuth) AuthCodeURL(state string) string {
	return "https://accounts.test/o/oauth2/auth?state=" + state
}

func (a *fakeAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if a.ExchangeErr != nil {
		return nil, a.ExchangeErr
	}
	return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh-" + code}, nil
}

func (a *fakeAuth) UserInfo(context.Context, *oauth2.Token) (classroomsvc.UserInfo, error) {
	return a.User, nil
}

type fixture struct {
	app      *echoapi.Server
	conf     *core.Config
	clock    *core.FixedClock
	gw       *classroomtest.Gateway
	auth     *fakeAuth
	profiles profile.Store
	sessions session.Store
	chat     *chatsvc.ConsoleService
	mail     *emailsvc.ConsoleService
}

func setup(t *testing.T, now time.Time) *fixture {
	t.Helper()
	return setupWithProfiles(t, now, nil)
}

// setupWithProfiles is setup backed by the given profile store, or an in-memory one when nil.
func setupWithProfiles(t *testing.T, now time.Time, profiles profile.Store) *fixture {
	t.Helper()

	conf := core.NewTestConfig()
	logger := core.NopLogger{}
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)
	require.NoError(t, core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, true))

	db := inmemdb.Open()
	if profiles == nil {
		profiles = inmemdb.NewProfileStore(db)
	}
	f := &fixture{
		conf:     conf,
		clock:    core.NewFixedClock(now),
		gw:       classroomtest.NewGateway(),
		profiles: profiles,
		sessions: inmemdb.NewSessionStore(db),
		chat:     chatsvc.NewConsoleServiceMock(conf),
		mail:     emailsvc.NewConsoleServiceMock(conf),
	}
	f.auth = &fakeAuth{Connector: &classroomtest.Connector{Gateway: f.gw}}

	dispatcher := reminder.NewDispatcher(reminder.NewChatChannel(f.chat), reminder.NewEmailChannel(f.mail), logger)
	f.app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Clock:          f.clock,
		Auth:           f.auth,
		Sessions:       f.sessions,
		Classroom:      classroom.NewService(logger, f.clock, conf.CoordinatorEmails),
		Reminders:      reminder.NewService(f.profiles, f.sessions, dispatcher, validate, f.clock, logger),
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = f.app.Close() })
	return f
}

// signIn stores sess and returns a JWT for it. Tokens are issued against the wall clock since
// the JWT middleware validates expiry with time.Now.
func (f *fixture) signIn(t *testing.T, sess session.Session) string {
	t.Helper()
	require.NoError(t, f.sessions.Set(context.Background(), sess))
	return getToken(t, f.conf, sess)
}

func getToken(t *testing.T, conf *core.Config, sess session.Session) string {
	claims := echoapi.GetSessionClaims(conf, sess, time.Now())
	token, err := echoapi.GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
