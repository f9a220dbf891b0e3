package reminder

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/core/profile"
	"github.com/trezcool/semillero/core/session"
)

var (
	ErrProfileRequired = errors.New("you must set up your profile first")
	ErrChannelRequired = errors.New("you must enable at least one notification method")
)

// sampleTasks back test notifications so users can preview a reminder without real pending work.
var sampleTasks = []PendingTask{
	{
		CourseName:      "Programación Web",
		AssignmentTitle: "Proyecto Final - Dashboard React",
		DueDate:         &classroom.Date{Year: 2024, Month: 12, Day: 15},
		DueTime:         &classroom.TimeOfDay{Hours: 23, Minutes: 59},
		Description:     "Desarrollar un dashboard completo con React y Node.js",
	},
	{
		CourseName:      "Base de Datos",
		AssignmentTitle: "Diseño de Schema",
		DueDate:         &classroom.Date{Year: 2024, Month: 12, Day: 10},
		DueTime:         &classroom.TimeOfDay{Hours: 18, Minutes: 0},
		Description:     "Crear el diseño de base de datos para el proyecto",
	},
	{
		CourseName:      "Metodologías Ágiles",
		AssignmentTitle: "Presentación Scrum",
		DueDate:         &classroom.Date{Year: 2024, Month: 12, Day: 8},
		DueTime:         &classroom.TimeOfDay{Hours: 15, Minutes: 30},
		Description:     "Preparar presentación sobre metodología Scrum",
	},
}

type (
	Stats struct {
		profile.Stats
		ActiveSessions int `json:"activeSessions"`
	}

	TestResult struct {
		Success   bool            `json:"success"`
		Message   string          `json:"message"`
		Results   []ChannelResult `json:"results"`
		TestTasks int             `json:"testTasks"`
	}

	// Service is what the web layer uses to feed and query the reminder pipeline.
	Service struct {
		profiles   profile.Store
		sessions   session.Store
		dispatcher *Dispatcher
		validate   *validator.Validate
		clock      core.Clock
		logger     core.Logger
	}
)

func NewService(
	profiles profile.Store,
	sessions session.Store,
	dispatcher *Dispatcher,
	validate *validator.Validate,
	clock core.Clock,
	logger core.Logger,
) *Service {
	return &Service{
		profiles:   profiles,
		sessions:   sessions,
		dispatcher: dispatcher,
		validate:   validate,
		clock:      clock,
		logger:     logger,
	}
}

// Profile returns the stored profile of identity, or the defaults when none was saved.
func (svc *Service) Profile(ctx context.Context, identity string) (profile.Profile, error) {
	p, err := svc.profiles.Get(ctx, identity)
	if errors.Cause(err) == profile.ErrNotFound {
		return profile.Default(identity), nil
	}
	return p, errors.Wrap(err, "getting profile")
}

// RegisterProfile validates upd and replaces whatever profile identity had.
func (svc *Service) RegisterProfile(ctx context.Context, identity string, upd profile.Update) (profile.Profile, error) {
	if err := upd.Validate(svc.validate); err != nil {
		return profile.Profile{}, err
	}
	p := upd.Apply(identity, svc.clock.Now())
	if err := svc.profiles.Set(ctx, p); err != nil {
		return profile.Profile{}, errors.Wrap(err, "saving profile")
	}
	svc.logger.Info(fmt.Sprintf("profile registered for reminders: %s", identity))
	return p, nil
}

// RegisterSession replaces the session kept for s.Identity.
func (svc *Service) RegisterSession(ctx context.Context, s session.Session) error {
	if err := svc.sessions.Set(ctx, s); err != nil {
		return errors.Wrap(err, "saving session")
	}
	svc.logger.Info(fmt.Sprintf("session registered for reminders: %s", s.Identity))
	return nil
}

// TriggerTestNotification sends the sample reminder to every channel identity enabled and reports each outcome.
// It requires a stored profile with at least one channel enabled.
func (svc *Service) TriggerTestNotification(ctx context.Context, identity string) (TestResult, error) {
	p, err := svc.profiles.Get(ctx, identity)
	if err != nil {
		if errors.Cause(err) == profile.ErrNotFound {
			return TestResult{}, core.NewValidationError(ErrProfileRequired)
		}
		return TestResult{}, errors.Wrap(err, "getting profile")
	}
	if !p.HasChannel() {
		return TestResult{}, core.NewValidationError(ErrChannelRequired)
	}

	svc.logger.Info(fmt.Sprintf("sending test notification to %s", identity))
	dlv := svc.dispatcher.Deliver(ctx, p, sampleTasks)
	ok := dlv.Succeeded()
	return TestResult{
		Success:   ok > 0,
		Message:   fmt.Sprintf("Notificación de prueba enviada (%d/%d exitosas)", ok, len(dlv.Results)),
		Results:   dlv.Results,
		TestTasks: len(sampleTasks),
	}, nil
}

// Stats reports profile count, channel adoption and active sessions.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	ps, err := profile.Count(ctx, svc.profiles)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Stats: ps, ActiveSessions: svc.sessions.Len(ctx)}, nil
}
