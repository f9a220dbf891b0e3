// Package chatsvc delivers plain-text chat messages (WhatsApp).
package chatsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/semillero/core"
)

var ErrInvalidPhone = errors.New("invalid phone number")

type (
	whatsappText struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	}

	whatsappMessage struct {
		Product string       `json:"messaging_product"`
		To      string       `json:"to"`
		Type    string       `json:"type"`
		Text    whatsappText `json:"text"`
	}

	whatsappError struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}

	// Status describes the chat channel for the health endpoint.
	Status struct {
		Enabled bool   `json:"enabled"`
		Ready   bool   `json:"ready"`
		Client  string `json:"client"`
	}
)

// WhatsAppService talks to the WhatsApp Business Cloud API.
type WhatsAppService struct {
	enabled     bool
	token       string
	messagesURL string
	countryCode string
	client      *rest.Client
}

var _ core.ChatService = (*WhatsAppService)(nil)

func NewWhatsAppService(conf *core.Config) *WhatsAppService {
	wa := conf.WhatsApp
	return &WhatsAppService{
		enabled:     wa.Enabled,
		token:       wa.Token,
		messagesURL: strings.TrimSuffix(wa.APIURL, "/") + "/" + wa.PhoneNumberID + "/messages",
		countryCode: wa.DefaultCountryCode,
		client:      rest.DefaultClient,
	}
}

func (svc *WhatsAppService) Ready() bool {
	return svc.enabled && svc.token != "" && !strings.HasSuffix(svc.messagesURL, "//messages")
}

func (svc *WhatsAppService) Status() Status {
	st := Status{Enabled: svc.enabled, Ready: svc.Ready(), Client: "not_initialized"}
	if st.Ready {
		st.Client = "initialized"
	}
	return st
}

func (svc *WhatsAppService) Send(ctx context.Context, phone, text string) error {
	if !svc.Ready() {
		return errors.New("whatsapp is not available")
	}
	to := NormalizePhone(phone, svc.countryCode)
	if to == "" {
		return errors.Wrap(ErrInvalidPhone, phone)
	}

	body, err := json.Marshal(whatsappMessage{
		Product: "whatsapp",
		To:      to,
		Type:    "text",
		Text:    whatsappText{Body: text},
	})
	if err != nil {
		return errors.Wrap(err, "encoding whatsapp message")
	}

	res, err := sendWithContext(ctx, svc.client, rest.Request{
		Method:  rest.Post,
		BaseURL: svc.messagesURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + svc.token,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		return errors.Wrap(err, "calling whatsapp")
	}
	if res.StatusCode >= http.StatusBadRequest {
		var werr whatsappError
		if json.Unmarshal([]byte(res.Body), &werr) == nil && werr.Error.Message != "" {
			return errors.New(fmt.Sprintf("whatsapp status: %d - %s", res.StatusCode, werr.Error.Message))
		}
		return errors.New(fmt.Sprintf("whatsapp status: %d - body: %s", res.StatusCode, res.Body))
	}
	return nil
}

// sendWithContext is rest.Client.Send bound to ctx.
func sendWithContext(ctx context.Context, client *rest.Client, request rest.Request) (*rest.Response, error) {
	req, err := rest.BuildRequestObject(request)
	if err != nil {
		return nil, err
	}
	res, err := client.MakeRequest(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(res)
}

// NormalizePhone keeps only digits and prefixes countryCode when missing.
// It returns "" when phone has no digits.
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if countryCode != "" && !strings.HasPrefix(digits, countryCode) {
		digits = countryCode + digits
	}
	return digits
}
