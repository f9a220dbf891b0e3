package core

import "context"

// ChatService is any service that can deliver a plain-text chat message to a phone number.
type ChatService interface {
	Ready() bool
	Send(ctx context.Context, phone, text string) error
}
