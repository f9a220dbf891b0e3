package reminder

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/profile"
)

type (
	// ChannelResult is the outcome of one send attempt.
	ChannelResult struct {
		Channel   ChannelName `json:"type"`
		Recipient string      `json:"recipient"`
		Success   bool        `json:"success"`
		Skipped   bool        `json:"skipped,omitempty"` // channel was not ready; nothing was sent
		Error     string      `json:"error,omitempty"`
	}

	// Delivery aggregates the channel results of one reminder.
	Delivery struct {
		Identity string          `json:"email"`
		Tasks    int             `json:"tasks"`
		Results  []ChannelResult `json:"results"`
	}

	// Dispatcher fans a reminder out to every channel a profile enabled.
	Dispatcher struct {
		chat   Channel
		email  Channel
		logger core.Logger
	}
)

// Succeeded counts the successful sends.
func (d Delivery) Succeeded() int {
	var n int
	for _, r := range d.Results {
		if r.Success {
			n++
		}
	}
	return n
}

func NewDispatcher(chat, email Channel, logger core.Logger) *Dispatcher {
	return &Dispatcher{chat: chat, email: email, logger: logger}
}

type target struct {
	ch        Channel
	recipient string
}

// targets lists the channels p wants, chat first. Chat requires a phone on file.
func (d *Dispatcher) targets(p profile.Profile) []target {
	var ts []target
	if p.WantsWhatsApp() && d.chat != nil {
		ts = append(ts, target{ch: d.chat, recipient: p.Phone})
	}
	if p.EmailEnabled && d.email != nil {
		ts = append(ts, target{ch: d.email, recipient: p.Identity})
	}
	return ts
}

// Deliver sends the reminder for tasks on every channel p enabled, concurrently.
// A failing or unready channel never affects the other one.
func (d *Dispatcher) Deliver(ctx context.Context, p profile.Profile, tasks []PendingTask) Delivery {
	dlv := Delivery{Identity: p.Identity, Tasks: len(tasks), Results: make([]ChannelResult, 0)}
	ts := d.targets(p)
	if len(ts) == 0 || len(tasks) == 0 {
		return dlv
	}
	dlv.Results = make([]ChannelResult, len(ts))
	msg := NewMessage(p.Identity, tasks)

	var wg sync.WaitGroup
	for i, t := range ts {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()
			dlv.Results[i] = d.send(ctx, p.Identity, t, msg)
		}(i, t)
	}
	wg.Wait()
	return dlv
}

func (d *Dispatcher) send(ctx context.Context, identity string, t target, msg Message) (res ChannelResult) {
	res = ChannelResult{Channel: t.ch.Name(), Recipient: t.recipient}
	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Error = fmt.Sprintf("panic: %v", r)
			d.logger.Error(fmt.Sprintf("%s reminder to %s panicked: %v", res.Channel, identity, r))
		}
	}()

	if !t.ch.Ready() {
		res.Skipped = true
		res.Error = ErrChannelNotReady.Error()
		d.logger.Info(fmt.Sprintf("%s channel not ready, skipping %s", res.Channel, identity))
		return res
	}
	if err := t.ch.Send(ctx, t.recipient, msg); err != nil {
		res.Error = err.Error()
		d.logger.Error(fmt.Sprintf("sending %s reminder to %s: %v", res.Channel, identity, err), err)
		return res
	}
	res.Success = true
	d.logger.Info(fmt.Sprintf("%s reminder sent to %s", res.Channel, identity))
	return res
}
