package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/core/classroom/classroomtest"
	"github.com/trezcool/semillero/core/profile"
	"github.com/trezcool/semillero/core/session"
	"github.com/trezcool/semillero/storage/database/inmem"
)

var errSendFailed = errors.New("provider rejected the message")

type sent struct {
	recipient string
	msg       Message
}

// fakeChannel records every send; Fail, NotReady and PanicFor drive error paths.
type fakeChannel struct {
	name     ChannelName
	Fail     bool
	NotReady bool
	PanicFor string

	mu   sync.Mutex
	sent []sent
}

func (ch *fakeChannel) Name() ChannelName { return ch.name }
func (ch *fakeChannel) Ready() bool       { return !ch.NotReady }

func (ch *fakeChannel) Send(_ context.Context, recipient string, msg Message) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if recipient == ch.PanicFor {
		panic("boom")
	}
	ch.sent = append(ch.sent, sent{recipient: recipient, msg: msg})
	if ch.Fail {
		return errSendFailed
	}
	return nil
}

func (ch *fakeChannel) Sent() []sent {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return append([]sent(nil), ch.sent...)
}

// manualTimer fires only when told to.
type manualTimer struct {
	spec    string
	fn      func()
	started bool
	stopped bool
}

func (tm *manualTimer) Every(spec string, fn func()) error {
	tm.spec, tm.fn = spec, fn
	return nil
}
func (tm *manualTimer) Start() { tm.started = true }
func (tm *manualTimer) Stop()  { tm.stopped = true }
func (tm *manualTimer) Fire()  { tm.fn() }

type fixture struct {
	clock     *core.FixedClock
	profiles  profile.Store
	sessions  session.Store
	gw        *classroomtest.Gateway
	connector *classroomtest.Connector
	chat      *fakeChannel
	email     *fakeChannel
	timer     *manualTimer
	scheduler *Scheduler
	service   *Service
}

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)
	return validate
}

func setup(t *testing.T, now time.Time) *fixture {
	t.Helper()

	db := inmemdb.Open()
	f := &fixture{
		clock:    core.NewFixedClock(now),
		profiles: inmemdb.NewProfileStore(db),
		sessions: inmemdb.NewSessionStore(db),
		gw:       classroomtest.NewGateway(),
		chat:     &fakeChannel{name: ChannelWhatsApp},
		email:    &fakeChannel{name: ChannelEmail},
		timer:    new(manualTimer),
	}
	f.connector = &classroomtest.Connector{Gateway: f.gw}

	logger := core.NopLogger{}
	dispatcher := NewDispatcher(f.chat, f.email, logger)
	f.scheduler = NewScheduler(SchedulerDeps{
		Profiles:   f.profiles,
		Sessions:   f.sessions,
		Connector:  f.connector,
		Dispatcher: dispatcher,
		Timer:      f.timer,
		Clock:      f.clock,
		Logger:     logger,
	}, HourlySpec)
	f.service = NewService(f.profiles, f.sessions, dispatcher, newValidator(), f.clock, logger)
	return f
}

func (f *fixture) addProfile(t *testing.T, p profile.Profile) {
	t.Helper()
	if err := f.profiles.Set(context.Background(), p); err != nil {
		t.Fatalf("profiles.Set() failed: %v", err)
	}
}

func (f *fixture) addSession(t *testing.T, identity, userID string) {
	t.Helper()
	if err := f.sessions.Set(context.Background(), session.Session{Identity: identity, UserID: userID, Role: classroom.RoleStudent}); err != nil {
		t.Fatalf("sessions.Set() failed: %v", err)
	}
}

// addTask enrolls the gateway user in courseID and publishes an assignment due `in` from now (zero: undated).
func (f *fixture) addTask(courseID, workID, title string, now time.Time, in time.Duration) {
	if _, ok := f.gw.CourseWork[courseID]; !ok {
		f.gw.AddCourse(classroom.EnrolledCourses, classroom.Course{ID: courseID, Name: "Course " + courseID})
	}
	cw := classroom.CourseWork{ID: workID, CourseID: courseID, Title: title}
	if in != 0 {
		due := now.Add(in)
		cw.DueDate = &classroom.Date{Year: due.Year(), Month: int(due.Month()), Day: due.Day()}
		cw.DueTime = &classroom.TimeOfDay{Hours: due.Hour(), Minutes: due.Minute()}
	}
	f.gw.AddCourseWork(cw)
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 12, 2, hour, minute, 0, 0, time.UTC)
}
