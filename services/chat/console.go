package chatsvc

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/trezcool/semillero/core"
)

// ChatMessage is a message ConsoleService printed.
type ChatMessage struct {
	Phone string
	Text  string
}

// ConsoleService prints chat messages; used in development and tests.
type ConsoleService struct {
	countryCode string
	out         io.Writer

	mu   sync.Mutex
	sent []ChatMessage
}

var _ core.ChatService = (*ConsoleService)(nil)

func NewConsoleService(conf *core.Config) *ConsoleService {
	return &ConsoleService{countryCode: conf.WhatsApp.DefaultCountryCode, out: os.Stdout}
}

func NewConsoleServiceMock(conf *core.Config) *ConsoleService {
	svc := NewConsoleService(conf)
	svc.out = io.Discard
	return svc
}

func (svc *ConsoleService) Ready() bool { return true }

func (svc *ConsoleService) Send(_ context.Context, phone, text string) error {
	to := NormalizePhone(phone, svc.countryCode)
	if to == "" {
		return ErrInvalidPhone
	}
	_, _ = fmt.Fprintf(svc.out, "WhatsApp to +%s:\n%s\n", to, text)

	svc.mu.Lock()
	svc.sent = append(svc.sent, ChatMessage{Phone: to, Text: text})
	svc.mu.Unlock()
	return nil
}

func (svc *ConsoleService) SentMessages() []ChatMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]ChatMessage(nil), svc.sent...)
}
