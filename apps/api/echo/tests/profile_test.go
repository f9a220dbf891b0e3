package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/semillero/core/profile"
	"github.com/trezcool/semillero/core/reminder"
	"github.com/trezcool/semillero/storage/database/sqlx"
	"github.com/trezcool/semillero/storage/database/testutil"
)

func Test_profileApi_profile(t *testing.T) {
	now := time.Date(2024, 12, 2, 12, 0, 0, 0, time.UTC)
	f := setup(t, now)
	token := f.signIn(t, ana)

	saved := profile.Profile{
		Identity:         ana.Identity,
		Phone:            "+54 9 11 1234-5678",
		WhatsAppEnabled:  true,
		EmailEnabled:     true,
		NotificationTime: "08:00",
		Timezone:         profile.DefaultTimezone,
		UpdatedAt:        now,
	}

	tests := []httpTest{
		{name: "Auth required", path: "/api/profile", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "defaults", path: "/api/profile", token: token, wantData: marchallObj(t, profile.Default(ana.Identity))},
		{
			name: "whatsapp without phone", method: http.MethodPost, path: "/api/profile", token: token,
			body:     []byte(`{"whatsappEnabled": true, "emailEnabled": true}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"phone": "a phone number is required to enable WhatsApp"}`),
		},
		{
			name: "invalid phone", method: http.MethodPost, path: "/api/profile", token: token,
			body:     []byte(`{"phone": "12345", "whatsappEnabled": true}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"phone": "invalid phone number format"}`),
		},
		{
			name: "invalid time", method: http.MethodPost, path: "/api/profile", token: token,
			body:     []byte(`{"emailEnabled": true, "notificationTime": "25:00"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"notificationTime": "notificationTime must be a time of day in HH:MM format"}`),
		},
		{name: "nothing saved yet", path: "/api/profile", token: token, wantData: marchallObj(t, profile.Default(ana.Identity))},
		{
			name: "saved", method: http.MethodPost, path: "/api/profile", token: token,
			body:     []byte(`{"phone": " +54 9 11 1234-5678 ", "whatsappEnabled": true, "emailEnabled": true, "notificationTime": "08:00"}`),
			wantData: marchallObj(t, echo.Map{"message": "Perfil actualizado correctamente", "profile": saved}),
		},
		{name: "read back", path: "/api/profile", token: token, wantData: marchallObj(t, saved)},
	}
	runHTTPTests(t, f.app, tests)
}

func Test_profileApi_testNotification(t *testing.T) {
	f := setup(t, time.Date(2024, 12, 2, 12, 0, 0, 0, time.UTC))
	token := f.signIn(t, ana)
	path := "/api/profile/test-notification"

	t.Run("profile required", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: reminder.ErrProfileRequired.Error()}),
		}
		req, rec := newAuthRequest(http.MethodPost, path, token)
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("channel required", func(t *testing.T) {
		require.NoError(t, f.profiles.Set(context.Background(), profile.Profile{Identity: ana.Identity, NotificationTime: "17:00"}))

		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: reminder.ErrChannelRequired.Error()}),
		}
		req, rec := newAuthRequest(http.MethodPost, path, token)
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("sent", func(t *testing.T) {
		body := []byte(`{"phone": "+54 9 11 1234-5678", "whatsappEnabled": true, "emailEnabled": true}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/profile", token, body)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		req, rec = newAuthRequest(http.MethodPost, path, token)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Message string              `json:"message"`
			Details reminder.TestResult `json:"details"`
		}
		unmarchall(t, rec, &resp)
		assert.Equal(t, "Notificación de prueba enviada correctamente", resp.Message)
		assert.True(t, resp.Details.Success)
		assert.Equal(t, "Notificación de prueba enviada (2/2 exitosas)", resp.Details.Message)
		assert.Equal(t, 3, resp.Details.TestTasks)
		assert.Len(t, resp.Details.Results, 2)

		if sent := f.chat.SentMessages(); assert.Len(t, sent, 1) {
			assert.Equal(t, "5491112345678", sent[0].Phone)
			assert.Contains(t, sent[0].Text, "Proyecto Final - Dashboard React")
		}
		if sent := f.mail.SentMessages(); assert.Len(t, sent, 1) {
			assert.Equal(t, ana.Identity, sent[0].To[0].Address)
		}
	})

	t.Run("every channel failed", func(t *testing.T) {
		// bypasses validation: the console chat rejects phones without digits
		require.NoError(t, f.profiles.Set(context.Background(), profile.Profile{
			Identity: ana.Identity, Phone: "n/a", WhatsAppEnabled: true, NotificationTime: "17:00",
		}))

		req, rec := newAuthRequest(http.MethodPost, path, token)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp httpErr
		unmarchall(t, rec, &resp)
		assert.Equal(t, "Notificación de prueba enviada (0/1 exitosas)", resp.Error)
	})
}

func Test_profileApi_stats(t *testing.T) {
	f := setup(t, time.Date(2024, 12, 2, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	require.NoError(t, f.profiles.Set(ctx, profile.Profile{Identity: "a@test.edu", WhatsAppEnabled: true, Phone: "+5491112345678"}))
	require.NoError(t, f.profiles.Set(ctx, profile.Profile{Identity: "b@test.edu", EmailEnabled: true}))

	tests := []httpTest{
		{
			name: "coordinator only", path: "/api/scheduler/stats", token: f.signIn(t, tom),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "stats", path: "/api/scheduler/stats", token: f.signIn(t, coord),
			wantData: []byte(`{"totalUsers": 2, "usersWithWhatsApp": 1, "usersWithEmail": 1, "activeSessions": 2}`),
		},
	}
	runHTTPTests(t, f.app, tests)
}

func Test_profileApi_databaseGone(t *testing.T) {
	now := time.Date(2024, 12, 2, 12, 0, 0, 0, time.UTC)
	db := testutil.PrepareDB(t, true)
	f := setupWithProfiles(t, now, sqlxdb.NewProfileStore(db))
	token := f.signIn(t, ana)
	require.NoError(t, db.Close())

	req, rec := newAuthRequest(http.MethodGet, "/api/profile", token)
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	select {
	case <-f.app.ShutdownSignal():
	case <-time.After(time.Second):
		t.Error("the server was not asked to shut down")
	}
}
