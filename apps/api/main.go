package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/semillero/apps/api/echo"
	"github.com/trezcool/semillero/assets"
	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/core/profile"
	"github.com/trezcool/semillero/core/reminder"
	"github.com/trezcool/semillero/services/chat"
	"github.com/trezcool/semillero/services/classroom"
	"github.com/trezcool/semillero/services/email"
	"github.com/trezcool/semillero/services/logger"
	"github.com/trezcool/semillero/services/scheduler"
	"github.com/trezcool/semillero/storage/database"
	"github.com/trezcool/semillero/storage/database/inmem"
	"github.com/trezcool/semillero/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Sync()

	dbLogger := logsvc.NewRollbarLogger(zl.Named("db"), conf)

	// set up storage
	mem := inmemdb.Open()
	sessions := inmemdb.NewSessionStore(mem)
	profiles, closeDB, err := setUpProfileStore(conf, mem, dbLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up profile store: %v", err), err)
	}
	defer func() {
		if err = closeDB(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf.Debug); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// set up services
	clock := core.SystemClock()
	dispatcher := reminder.NewDispatcher(newChatChannel(conf, logger), newEmailChannel(conf, logger), logger)
	reminders := reminder.NewService(profiles, sessions, dispatcher, validate, clock, logger)
	auth := classroomsvc.NewGoogleAuth(conf.Google)

	// =========================================================================
	// Start Scheduler

	timer := schedsvc.NewCronTimer(time.Local)
	if conf.Scheduler.Enabled {
		sched := reminder.NewScheduler(reminder.SchedulerDeps{
			Profiles:   profiles,
			Sessions:   sessions,
			Connector:  auth,
			Dispatcher: dispatcher,
			Timer:      timer,
			Clock:      clock,
			Logger:     logger,
		}, conf.Scheduler.Spec)
		if err = sched.Start(); err != nil {
			logger.Fatal(fmt.Sprintf("starting scheduler: %v", err), err)
		}
		defer sched.Stop()
	}
	if conf.Server.PublicURL != "" && !conf.Debug {
		if err = schedsvc.NewKeepAlive(conf.Server.PublicURL, logger).Schedule(timer); err != nil {
			logger.Error(fmt.Sprintf("scheduling keep-alive: %v", err), err)
		}
		timer.Start() // no-op if the scheduler already started it
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.Publish("reminders", expvar.Func(func() interface{} {
		stats, _ := reminders.Stats(context.Background())
		return stats
	}))
	expvar.Publish("nextReminderRun", expvar.Func(func() interface{} { return timer.NextRun() }))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			Clock:      clock,
			Auth:       auth,
			Sessions:   sessions,
			Classroom:  classroom.NewService(logger, clock, conf.CoordinatorEmails),
			Reminders:  reminders,
		},
	)
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpProfileStore persists profiles in SQL when a driver is configured, in memory otherwise.
func setUpProfileStore(conf *core.Config, mem *inmemdb.DB, logger core.Logger) (profile.Store, func() error, error) {
	if conf.Database.Driver == "" {
		logger.Warn("no database configured: profiles are kept in memory and lost on restart")
		return inmemdb.NewProfileStore(mem), func() error { return nil }, nil
	}

	db, err := database.Open(conf.Database)
	if err != nil {
		return nil, nil, err
	}
	ran, err := database.Migrate(context.Background(), db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	for _, version := range ran {
		logger.Info(fmt.Sprintf("applied migration %s", version))
	}
	return sqlxdb.NewProfileStore(db), db.Close, nil
}

// newChatChannel sends through the WhatsApp Cloud API when enabled; while debugging, messages are printed instead.
func newChatChannel(conf *core.Config, logger core.Logger) reminder.Channel {
	wa := chatsvc.NewWhatsAppService(conf)
	if conf.Debug && !wa.Ready() {
		logger.Info("WhatsApp not configured: chat reminders are printed to the console")
		return reminder.NewChatChannel(chatsvc.NewConsoleService(conf))
	}
	if st := wa.Status(); !st.Ready {
		logger.Warn("WhatsApp not ready: chat reminders are skipped", map[string]interface{}{"whatsapp": st})
	}
	return reminder.NewChatChannel(wa)
}

func newEmailChannel(conf *core.Config, logger core.Logger) reminder.Channel {
	if !conf.Email.Enabled {
		logger.Info("email reminders disabled")
		return nil
	}
	if conf.Debug {
		return reminder.NewEmailChannel(emailsvc.NewConsoleService(conf))
	}
	return reminder.NewEmailChannel(emailsvc.NewSendgridService(conf))
}
