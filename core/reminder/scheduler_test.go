package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/core/classroom/classroomtest"
	"github.com/trezcool/semillero/core/profile"
)

func TestEligible(t *testing.T) {
	p := profile.Profile{Identity: "ana@test.edu", NotificationTime: "17:00"}

	tests := []struct {
		name string
		time string
		now  time.Time
		want bool
	}{
		{name: "exact minute", time: "17:00", now: at(17, 0), want: true},
		{name: "window upper bound", time: "17:00", now: at(17, 5), want: true},
		{name: "past window", time: "17:00", now: at(17, 6), want: false},
		// 16:55 is five minutes away but in another hour
		{name: "previous hour", time: "17:00", now: at(16, 55), want: false},
		{name: "next hour", time: "17:00", now: at(18, 0), want: false},
		{name: "before configured minute", time: "17:58", now: at(17, 55), want: true},
		{name: "midnight", time: "00:03", now: at(0, 0), want: true},
		{name: "invalid time", time: "5pm", now: at(17, 0), want: false},
		{name: "blank time", time: "", now: at(17, 0), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p.NotificationTime = tc.time
			assert.Equal(t, tc.want, Eligible(p, tc.now))
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	now := at(17, 0)
	f := setup(t, now)
	f.addProfile(t, profile.Profile{Identity: "ana@test.edu", EmailEnabled: true, NotificationTime: "17:00"})
	f.addSession(t, "ana@test.edu", "u-ana")
	f.addTask("c1", "w1", "Ensayo", now, 48*time.Hour)

	require.NoError(t, f.scheduler.Start())
	assert.Equal(t, HourlySpec, f.timer.spec)
	assert.True(t, f.timer.started)

	f.timer.Fire()
	assert.Len(t, f.email.Sent(), 1, "firing the timer runs a tick")

	f.scheduler.Stop()
	assert.True(t, f.timer.stopped)
}

func TestScheduler_Tick(t *testing.T) {
	ctx := context.Background()

	t.Run("whatsapp only reminder", func(t *testing.T) {
		now := at(17, 2)
		f := setup(t, now)
		f.addProfile(t, profile.Profile{
			Identity:         "ana@test.edu",
			Phone:            "+541112345678",
			WhatsAppEnabled:  true,
			NotificationTime: "17:00",
		})
		f.addSession(t, "ana@test.edu", "u-ana")
		f.addTask("c1", "w1", "Trabajo práctico", now, 72*time.Hour)

		report := f.scheduler.Tick(ctx)

		require.NoError(t, report.Err)
		assert.Equal(t, 1, report.Profiles)
		assert.Equal(t, 1, report.Eligible)
		require.Len(t, report.Identities, 1)
		assert.Equal(t, OutcomeDelivered, report.Identities[0].Outcome)

		sent := f.chat.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "+541112345678", sent[0].recipient)
		assert.Contains(t, sent[0].msg.Text, "Trabajo práctico")
		assert.Empty(t, f.email.Sent())
	})

	t.Run("no pending tasks", func(t *testing.T) {
		now := at(17, 0)
		f := setup(t, now)
		f.addProfile(t, profile.Profile{Identity: "ana@test.edu", EmailEnabled: true, NotificationTime: "17:00"})
		f.addSession(t, "ana@test.edu", "u-ana")
		f.addTask("c1", "w1", "Turned in", now, 24*time.Hour)
		f.addTask("c1", "w2", "Too far", now, 10*24*time.Hour)
		f.addTask("c1", "w3", "Overdue", now, -time.Hour)
		f.gw.AddSubmission(classroom.Submission{CourseID: "c1", CourseWorkID: "w1", UserID: "u-ana", State: classroom.StateTurnedIn})

		report := f.scheduler.Tick(ctx)

		require.Len(t, report.Identities, 1)
		assert.Equal(t, OutcomeNoTasks, report.Identities[0].Outcome)
		assert.Nil(t, report.Identities[0].Delivery)
		assert.Empty(t, f.chat.Sent())
		assert.Empty(t, f.email.Sent())
	})

	t.Run("no session", func(t *testing.T) {
		f := setup(t, at(17, 0))
		f.addProfile(t, profile.Profile{Identity: "ana@test.edu", EmailEnabled: true, NotificationTime: "17:00"})

		report := f.scheduler.Tick(ctx)

		require.Len(t, report.Identities, 1)
		assert.Equal(t, OutcomeSkipped, report.Identities[0].Outcome)
		assert.Equal(t, "no session", report.Identities[0].Reason)
		assert.Zero(t, f.connector.Connections())
		assert.Zero(t, f.gw.Calls())
		assert.Empty(t, f.email.Sent())
	})

	t.Run("disabled channels are never used", func(t *testing.T) {
		now := at(9, 0)
		f := setup(t, now)
		f.addProfile(t, profile.Profile{Identity: "ana@test.edu", Phone: "+541112345678", EmailEnabled: true, NotificationTime: "09:00"})
		f.addProfile(t, profile.Profile{Identity: "bob@test.edu", WhatsAppEnabled: true, NotificationTime: "09:00"}) // no phone
		f.addSession(t, "ana@test.edu", "u-ana")
		f.addSession(t, "bob@test.edu", "u-bob")
		f.addTask("c1", "w1", "Ensayo", now, 24*time.Hour)

		report := f.scheduler.Tick(ctx)

		require.Len(t, report.Identities, 2)
		assert.Empty(t, f.chat.Sent())
		sent := f.email.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "ana@test.edu", sent[0].recipient)

		bob := report.Identities[1]
		assert.Equal(t, "bob@test.edu", bob.Identity)
		require.NotNil(t, bob.Delivery)
		assert.Empty(t, bob.Delivery.Results)
	})

	t.Run("one identity failing does not stop the others", func(t *testing.T) {
		now := at(8, 0)
		f := setup(t, now)
		for _, id := range []string{"ana@test.edu", "bob@test.edu", "carl@test.edu"} {
			f.addProfile(t, profile.Profile{Identity: id, EmailEnabled: true, NotificationTime: "08:00"})
			f.addSession(t, id, "")
		}
		f.email.PanicFor = "bob@test.edu"
		f.addTask("c1", "w1", "Ensayo", now, 24*time.Hour)

		report := f.scheduler.Tick(ctx)

		require.Len(t, report.Identities, 3)
		for _, rep := range report.Identities {
			assert.Equal(t, OutcomeDelivered, rep.Outcome, rep.Identity)
		}
		bob := report.Identities[1].Delivery
		require.Len(t, bob.Results, 1)
		assert.False(t, bob.Results[0].Success)
		assert.Contains(t, bob.Results[0].Error, "panic")

		recipients := make([]string, 0)
		for _, s := range f.email.Sent() {
			recipients = append(recipients, s.recipient)
		}
		assert.ElementsMatch(t, []string{"ana@test.edu", "carl@test.edu"}, recipients)
	})

	t.Run("classroom failure", func(t *testing.T) {
		f := setup(t, at(8, 0))
		f.addProfile(t, profile.Profile{Identity: "ana@test.edu", EmailEnabled: true, NotificationTime: "08:00"})
		f.addSession(t, "ana@test.edu", "u-ana")
		f.gw.CoursesErr = classroomtest.ErrUnavailable

		report := f.scheduler.Tick(ctx)

		require.Len(t, report.Identities, 1)
		assert.Equal(t, OutcomeFailed, report.Identities[0].Outcome)
		assert.Contains(t, report.Identities[0].Reason, classroomtest.ErrUnavailable.Error())
		assert.Empty(t, f.email.Sent())
	})

	t.Run("connect failure", func(t *testing.T) {
		f := setup(t, at(8, 0))
		f.addProfile(t, profile.Profile{Identity: "ana@test.edu", EmailEnabled: true, NotificationTime: "08:00"})
		f.addSession(t, "ana@test.edu", "u-ana")
		f.connector.ConnectErr = classroomtest.ErrUnavailable

		report := f.scheduler.Tick(ctx)

		require.Len(t, report.Identities, 1)
		assert.Equal(t, OutcomeFailed, report.Identities[0].Outcome)
		assert.Zero(t, f.gw.Calls())
	})
}

// With an on-the-hour tick, a profile set to a minute past the window is never reminded.
func TestScheduler_Tick_offHourMinuteNeverFires(t *testing.T) {
	ctx := context.Background()
	start := at(0, 0)
	f := setup(t, start)
	f.addProfile(t, profile.Profile{Identity: "ana@test.edu", EmailEnabled: true, NotificationTime: "17:30"})
	f.addSession(t, "ana@test.edu", "u-ana")
	f.addTask("c1", "w1", "Ensayo", start, 6*24*time.Hour)

	for h := 0; h < 24; h++ {
		report := f.scheduler.Tick(ctx)
		assert.Zero(t, report.Eligible, report.At.Format("15:04"))
		f.clock.Advance(time.Hour)
	}
	assert.Empty(t, f.email.Sent())
	assert.Zero(t, f.connector.Connections())
}
