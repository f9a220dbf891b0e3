package emailsvc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/semillero/assets"
	"github.com/trezcool/semillero/core"
)

type dueSoon struct {
	Title      string
	CourseName string
	DueDate    string
}

func templatedMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Address: "ana@test.edu"}},
		Subject:      "⏰ Recordatorio: 2 tarea(s) pendiente(s) vence pronto",
		TemplateName: "due_soon",
		TemplateData: dueSoon{Title: "2 tarea(s) pendiente(s)", CourseName: "Base de Datos", DueDate: "10/12/2024"},
	}
}

func TestConsoleService_Send(t *testing.T) {
	require.NoError(t, core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, true))
	conf := core.NewTestConfig()
	ctx := context.Background()

	t.Run("templated", func(t *testing.T) {
		svc := NewConsoleServiceMock(conf)
		out := new(strings.Builder)
		svc.out = out

		require.NoError(t, svc.Send(ctx, templatedMessage()))

		sent := svc.SentMessages()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].TextContent, "Tarea: 2 tarea(s) pendiente(s)")
		assert.Contains(t, sent[0].TextContent, "Curso: Base de Datos")
		assert.Contains(t, sent[0].HTMLContent, "10/12/2024")
		assert.Contains(t, sent[0].HTMLContent, conf.FrontendBaseURL)
		assert.Contains(t, out.String(), "Subject: [Semillero Digital] ⏰ Recordatorio")
		assert.Contains(t, out.String(), "To: <ana@test.edu>")
	})

	t.Run("plain body", func(t *testing.T) {
		svc := NewConsoleServiceMock(conf)
		msg := &core.EmailMessage{To: []mail.Address{{Address: "ana@test.edu"}}, Subject: "hola", BodyStr: "cuerpo"}

		require.NoError(t, svc.Send(ctx, msg))
		require.Len(t, svc.SentMessages(), 1)
		assert.Equal(t, "cuerpo", svc.SentMessages()[0].TextContent)
		assert.Empty(t, svc.SentMessages()[0].HTMLContent)
	})

	t.Run("no recipients", func(t *testing.T) {
		svc := NewConsoleServiceMock(conf)
		require.NoError(t, svc.Send(ctx, &core.EmailMessage{Subject: "hola", BodyStr: "cuerpo"}))
		assert.Empty(t, svc.SentMessages())
	})

	t.Run("unknown template", func(t *testing.T) {
		svc := NewConsoleServiceMock(conf)
		msg := templatedMessage()
		msg.TemplateName = "nope"

		err := svc.Send(ctx, msg)
		assert.ErrorIs(t, err, core.ErrTemplateNotFound)
		assert.Empty(t, svc.SentMessages())
	})
}

func TestSendgridService_Send(t *testing.T) {
	require.NoError(t, core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, true))
	ctx := context.Background()

	newService := func(t *testing.T, status int) (*sendgridService, *map[string]interface{}) {
		payload := make(map[string]interface{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, endpoint, r.URL.Path)
			assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &payload)
			w.WriteHeader(status)
		}))
		t.Cleanup(srv.Close)

		conf := core.NewTestConfig()
		conf.Email.SendgridAPIKey = "sg-key"
		svc := NewSendgridService(conf).(*sendgridService)
		svc.host = srv.URL
		return svc, &payload
	}

	t.Run("accepted", func(t *testing.T) {
		svc, payload := newService(t, http.StatusAccepted)
		require.True(t, svc.Ready())

		require.NoError(t, svc.Send(ctx, templatedMessage()))

		pers := (*payload)["personalizations"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "[Semillero Digital] ⏰ Recordatorio: 2 tarea(s) pendiente(s) vence pronto", pers["subject"])
		assert.Len(t, (*payload)["content"], 2)
	})

	t.Run("rejected", func(t *testing.T) {
		svc, _ := newService(t, http.StatusUnauthorized)
		err := svc.Send(ctx, templatedMessage())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("not ready without key", func(t *testing.T) {
		assert.False(t, NewSendgridService(core.NewTestConfig()).Ready())
	})
}
