package classroomsvc

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gclassroom "google.golang.org/api/classroom/v1"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/classroom"
)

// Scopes are requested at sign-in; all of them are read-only.
var Scopes = []string{
	gclassroom.ClassroomCoursesReadonlyScope,
	gclassroom.ClassroomCourseworkStudentsReadonlyScope,
	gclassroom.ClassroomCourseworkMeReadonlyScope,
	gclassroom.ClassroomRostersReadonlyScope,
	"https://www.googleapis.com/auth/classroom.student-submissions.students.readonly",
	"https://www.googleapis.com/auth/classroom.student-submissions.me.readonly",
	goauth2.UserinfoEmailScope,
	goauth2.UserinfoProfileScope,
}

var ErrNoCode = errors.New("authorization code is missing")

// UserInfo is the Google account behind a token.
type UserInfo struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// GoogleAuth runs the OAuth consent flow and connects tokens to Classroom.
type GoogleAuth struct {
	conf *oauth2.Config
	opts []option.ClientOption
}

var _ classroom.Connector = (*GoogleAuth)(nil)

func NewGoogleAuth(conf core.GoogleConfig, opts ...option.ClientOption) *GoogleAuth {
	return &GoogleAuth{
		conf: &oauth2.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			RedirectURL:  conf.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       Scopes,
		},
		opts: opts,
	}
}

// AuthCodeURL is where the user is sent to grant access; offline so a refresh token comes back.
func (a *GoogleAuth) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (a *GoogleAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, ErrNoCode
	}
	tok, err := a.conf.Exchange(ctx, code)
	return tok, errors.Wrap(err, "exchanging authorization code")
}

func (a *GoogleAuth) clientOptions(ctx context.Context, tok *oauth2.Token) []option.ClientOption {
	opts := []option.ClientOption{option.WithTokenSource(a.conf.TokenSource(ctx, tok))}
	return append(opts, a.opts...)
}

// UserInfo fetches the profile of the account that owns tok.
func (a *GoogleAuth) UserInfo(ctx context.Context, tok *oauth2.Token) (UserInfo, error) {
	svc, err := goauth2.NewService(ctx, a.clientOptions(ctx, tok)...)
	if err != nil {
		return UserInfo{}, errors.Wrap(err, "creating userinfo client")
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return UserInfo{}, errors.Wrap(err, "getting userinfo")
	}
	return UserInfo{ID: info.Id, Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}

// Connect returns a Gateway acting as the owner of tok. Expired tokens are refreshed transparently.
func (a *GoogleAuth) Connect(ctx context.Context, tok *oauth2.Token) (classroom.Gateway, error) {
	if tok == nil {
		return nil, errors.New("no oauth token")
	}
	// the gateway outlives ctx (request or tick), so the token source must not be bound to it
	api, err := gclassroom.NewService(context.Background(), a.clientOptions(context.Background(), tok)...)
	if err != nil {
		return nil, errors.Wrap(err, "creating classroom client")
	}
	return &googleGateway{api: api}, nil
}
