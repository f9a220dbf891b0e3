package reminder

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core"
)

var ErrChannelNotReady = errors.New("channel not ready")

type ChannelName string

const (
	ChannelWhatsApp ChannelName = "whatsapp"
	ChannelEmail    ChannelName = "email"
)

// Channel delivers a reminder to one recipient (a phone number or an email address).
type Channel interface {
	Name() ChannelName
	Ready() bool
	Send(ctx context.Context, recipient string, msg Message) error
}

type chatChannel struct {
	svc core.ChatService
}

// NewChatChannel adapts a chat service (WhatsApp) into a Channel sending Message.Text.
func NewChatChannel(svc core.ChatService) Channel {
	return &chatChannel{svc: svc}
}

func (ch *chatChannel) Name() ChannelName { return ChannelWhatsApp }
func (ch *chatChannel) Ready() bool       { return ch.svc != nil && ch.svc.Ready() }

func (ch *chatChannel) Send(ctx context.Context, phone string, msg Message) error {
	if !ch.Ready() {
		return ErrChannelNotReady
	}
	return errors.Wrap(ch.svc.Send(ctx, phone, msg.Text), "sending chat message")
}

type emailChannel struct {
	svc core.EmailService
}

// NewEmailChannel adapts an email service into a Channel sending the templated rendition of Message.
func NewEmailChannel(svc core.EmailService) Channel {
	return &emailChannel{svc: svc}
}

func (ch *emailChannel) Name() ChannelName { return ChannelEmail }
func (ch *emailChannel) Ready() bool       { return ch.svc != nil && ch.svc.Ready() }

func (ch *emailChannel) Send(ctx context.Context, address string, msg Message) error {
	if !ch.Ready() {
		return ErrChannelNotReady
	}
	em := &core.EmailMessage{
		To:           []mail.Address{{Address: address}},
		Subject:      msg.Subject,
		TemplateName: msg.TemplateName,
		TemplateData: msg.TemplateData,
	}
	if em.TemplateName == "" {
		em.BodyStr = msg.Text
	}
	return errors.Wrap(ch.svc.Send(ctx, em), "sending email")
}
