package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/core/profile"
	"github.com/trezcool/semillero/core/session"
)

const (
	// HourlySpec fires at minute 0 of every hour.
	HourlySpec = "0 * * * *"

	// EligibilityWindow is the tolerance, in minutes, between a profile's notification minute and the tick's minute.
	EligibilityWindow = 5
)

// Timer runs a callback on a cron-like schedule.
type Timer interface {
	Every(spec string, fn func()) error
	Start()
	Stop()
}

type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeNoTasks   Outcome = "no_tasks"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

type (
	// IdentityReport records what a tick did for one eligible profile.
	IdentityReport struct {
		Identity string    `json:"email"`
		Outcome  Outcome   `json:"outcome"`
		Reason   string    `json:"reason,omitempty"`
		Delivery *Delivery `json:"delivery,omitempty"`
	}

	TickReport struct {
		At         time.Time        `json:"at"`
		Profiles   int              `json:"profiles"`
		Eligible   int              `json:"eligible"`
		Identities []IdentityReport `json:"identities"`
		Err        error            `json:"-"` // profile enumeration failure; Identities may be partial
	}

	SchedulerDeps struct {
		Profiles   profile.Store
		Sessions   session.Store
		Connector  classroom.Connector
		Dispatcher *Dispatcher
		Timer      Timer
		Clock      core.Clock
		Logger     core.Logger
	}

	// Scheduler checks every profile once per tick and reminds the ones whose notification time has come.
	Scheduler struct {
		SchedulerDeps
		spec string
	}
)

func NewScheduler(deps SchedulerDeps, spec string) *Scheduler {
	if spec == "" {
		spec = HourlySpec
	}
	if deps.Clock == nil {
		deps.Clock = core.SystemClock()
	}
	return &Scheduler{SchedulerDeps: deps, spec: spec}
}

// Start registers the tick with the Timer and starts it.
func (s *Scheduler) Start() error {
	err := s.Timer.Every(s.spec, func() {
		s.Tick(context.Background())
	})
	if err != nil {
		return errors.Wrapf(err, "scheduling reminders (%s)", s.spec)
	}
	s.Timer.Start()
	s.Logger.Info(fmt.Sprintf("reminder scheduler started (%s)", s.spec))
	return nil
}

func (s *Scheduler) Stop() {
	s.Timer.Stop()
	s.Logger.Info("reminder scheduler stopped")
}

// Eligible reports whether p is due at now: same hour, and minutes at most EligibilityWindow apart.
// Profiles with an unparsable time are never eligible.
func Eligible(p profile.Profile, now time.Time) bool {
	hour, minute, err := p.Clock()
	if err != nil {
		return false
	}
	diff := now.Minute() - minute
	if diff < 0 {
		diff = -diff
	}
	return now.Hour() == hour && diff <= EligibilityWindow
}

// Tick runs one pass over every stored profile. Profiles are handled one after the other;
// a failure for one identity is logged and recorded, never propagated.
func (s *Scheduler) Tick(ctx context.Context) TickReport {
	now := s.Clock.Now()
	report := TickReport{At: now, Identities: make([]IdentityReport, 0)}
	s.Logger.Debug(fmt.Sprintf("checking reminders for %02d:%02d", now.Hour(), now.Minute()))

	for p, err := range s.Profiles.List(ctx) {
		if err != nil {
			report.Err = errors.Wrap(err, "listing profiles")
			s.Logger.Error(fmt.Sprintf("reminder tick aborted: %v", report.Err), report.Err)
			break
		}
		report.Profiles++
		if !Eligible(p, now) {
			continue
		}
		report.Eligible++
		report.Identities = append(report.Identities, s.remind(ctx, p, now))
	}

	s.Logger.Info(fmt.Sprintf("reminder tick done: %d profiles, %d eligible", report.Profiles, report.Eligible),
		map[string]interface{}{"report": report.Identities})
	return report
}

func (s *Scheduler) remind(ctx context.Context, p profile.Profile, now time.Time) (rep IdentityReport) {
	rep = IdentityReport{Identity: p.Identity}
	defer func() {
		if r := recover(); r != nil {
			rep.Outcome = OutcomeFailed
			rep.Reason = fmt.Sprintf("panic: %v", r)
			s.Logger.Error(fmt.Sprintf("reminding %s panicked: %v", p.Identity, r))
		}
	}()

	sess, err := s.Sessions.Get(ctx, p.Identity)
	if err != nil {
		rep.Outcome = OutcomeSkipped
		rep.Reason = "no session"
		if errors.Cause(err) != session.ErrNotFound {
			rep.Reason = err.Error()
		}
		s.Logger.Info(fmt.Sprintf("no session for %s, skipping", p.Identity))
		return rep
	}

	gw, err := s.Connector.Connect(ctx, sess.Token)
	if err != nil {
		return s.failed(rep, errors.Wrap(err, "connecting to classroom"))
	}
	tasks, err := PendingTasks(ctx, gw, s.Logger, now, sess.UserID, sess.Identity)
	if err != nil {
		return s.failed(rep, err)
	}
	if len(tasks) == 0 {
		rep.Outcome = OutcomeNoTasks
		s.Logger.Debug(fmt.Sprintf("%s has no pending tasks", p.Identity))
		return rep
	}

	s.Logger.Info(fmt.Sprintf("%s has %d pending tasks", p.Identity, len(tasks)))
	dlv := s.Dispatcher.Deliver(ctx, p, tasks)
	rep.Outcome = OutcomeDelivered
	rep.Delivery = &dlv
	return rep
}

func (s *Scheduler) failed(rep IdentityReport, err error) IdentityReport {
	rep.Outcome = OutcomeFailed
	rep.Reason = err.Error()
	s.Logger.Error(fmt.Sprintf("reminding %s: %v", rep.Identity, err), err)
	return rep
}
