// Package schedsvc runs periodic jobs on gocron.
package schedsvc

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core/reminder"
)

// CronTimer implements reminder.Timer with a gocron scheduler.
// A job fires on schedule even while its previous run is still going.
type CronTimer struct {
	scheduler *gocron.Scheduler
}

var _ reminder.Timer = (*CronTimer)(nil)

func NewCronTimer(loc *time.Location) *CronTimer {
	if loc == nil {
		loc = time.Local
	}
	s := gocron.NewScheduler(loc)
	return &CronTimer{scheduler: s}
}

// Every registers fn on a 5-field cron spec.
func (t *CronTimer) Every(spec string, fn func()) error {
	_, err := t.scheduler.Cron(spec).Do(fn)
	return errors.Wrapf(err, "registering cron job %q", spec)
}

// EveryInterval registers fn to run every d, starting now.
func (t *CronTimer) EveryInterval(d time.Duration, fn func()) error {
	_, err := t.scheduler.Every(d).Do(fn)
	return errors.Wrapf(err, "registering job every %s", d)
}

// Start runs the scheduler in the background.
func (t *CronTimer) Start() {
	t.scheduler.StartAsync()
}

func (t *CronTimer) Stop() {
	t.scheduler.Stop()
}

// NextRun reports when the earliest job fires next.
func (t *CronTimer) NextRun() time.Time {
	_, next := t.scheduler.NextRun()
	return next
}

func (t *CronTimer) Jobs() int {
	return t.scheduler.Len()
}
