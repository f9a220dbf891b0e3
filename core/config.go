package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug              bool
		TestMode           bool
		AppName            string
		Build              string
		Env                string
		SecretKey          string
		JWTExpirationDelta time.Duration
		FrontendBaseURL    string
		WorkDir            string
		RollbarToken       string
		LogLevel           string
		CoordinatorEmails  []string

		Server    ServerConfig
		Google    GoogleConfig
		Email     EmailConfig
		WhatsApp  WhatsAppConfig
		Database  DatabaseConfig
		Scheduler SchedulerConfig
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		PublicURL       string // keep-alive pings target it; empty disables them
		ShutdownTimeout time.Duration
	}

	GoogleConfig struct {
		ClientID     string
		ClientSecret string
		RedirectURL  string
	}

	EmailConfig struct {
		Enabled          bool
		SendgridAPIKey   string
		DefaultFromEmail string
		DefaultFromName  string
	}

	WhatsAppConfig struct {
		Enabled            bool
		Token              string
		PhoneNumberID      string
		APIURL             string
		DefaultCountryCode string
	}

	// DatabaseConfig is only used when profiles are persisted; an empty Driver keeps them in memory.
	DatabaseConfig struct {
		Driver string
		DSN    string
	}

	SchedulerConfig struct {
		Enabled bool
		Spec    string
	}
)

// DefaultFromEmail returns the sender address used for outgoing reminders.
func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.Email.DefaultFromName, Address: c.Email.DefaultFromEmail}
}

// IsCoordinator reports whether email belongs to the configured coordinator list.
func (c *Config) IsCoordinator(email string) bool {
	email = CleanString(email, true)
	for _, e := range c.CoordinatorEmails {
		if CleanString(e, true) == email {
			return true
		}
	}
	return false
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Semillero Digital")
	conf.SetDefault("build", "develop")
	conf.SetDefault("secretKey", "t8#k2z!fq6w@-seed-dashboard-dev-key-r4n9$x1c")
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("frontendURL", "http://localhost:3000")
	conf.SetDefault("logLevel", "info")
	conf.SetDefault("coordinatorEmails", "")

	conf.SetDefault("server.host", "0.0.0.0:5000")
	conf.SetDefault("server.debugHost", "0.0.0.0:5001")
	conf.SetDefault("server.publicURL", "")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)

	conf.SetDefault("google.clientID", "")
	conf.SetDefault("google.clientSecret", "")
	conf.SetDefault("google.redirectURL", "http://localhost:5000/auth/callback")

	conf.SetDefault("email.enabled", true)
	conf.SetDefault("email.sendgridAPIKey", "")
	conf.SetDefault("email.defaultFromEmail", "noreply@localhost")
	conf.SetDefault("email.defaultFromName", "Semillero Digital")

	conf.SetDefault("whatsapp.enabled", false)
	conf.SetDefault("whatsapp.token", "")
	conf.SetDefault("whatsapp.phoneNumberID", "")
	conf.SetDefault("whatsapp.apiURL", "https://graph.facebook.com/v18.0")
	conf.SetDefault("whatsapp.defaultCountryCode", "54")

	conf.SetDefault("database.driver", "")
	conf.SetDefault("database.dsn", "")

	conf.SetDefault("scheduler.enabled", true)
	conf.SetDefault("scheduler.spec", "0 * * * *")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	env = strings.ToUpper(env)
	if env == "TEST" {
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:              conf.GetBool("debug"),
		TestMode:           conf.GetBool("testMode"),
		AppName:            conf.GetString("appName"),
		Build:              conf.GetString("build"),
		Env:                env,
		SecretKey:          conf.GetString("secretKey"),
		JWTExpirationDelta: conf.GetDuration("jwtExpirationDelta"),
		FrontendBaseURL:    conf.GetString("frontendURL"),
		WorkDir:            wd,
		RollbarToken:       conf.GetString("rollbarToken"),
		LogLevel:           conf.GetString("logLevel"),
		CoordinatorEmails:  splitList(conf.GetString("coordinatorEmails")),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			DebugHost:       conf.GetString("server.debugHost"),
			PublicURL:       conf.GetString("server.publicURL"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Google: GoogleConfig{
			ClientID:     conf.GetString("google.clientID"),
			ClientSecret: conf.GetString("google.clientSecret"),
			RedirectURL:  conf.GetString("google.redirectURL"),
		},
		Email: EmailConfig{
			Enabled:          conf.GetBool("email.enabled"),
			SendgridAPIKey:   conf.GetString("email.sendgridAPIKey"),
			DefaultFromEmail: conf.GetString("email.defaultFromEmail"),
			DefaultFromName:  conf.GetString("email.defaultFromName"),
		},
		WhatsApp: WhatsAppConfig{
			Enabled:            conf.GetBool("whatsapp.enabled"),
			Token:              conf.GetString("whatsapp.token"),
			PhoneNumberID:      conf.GetString("whatsapp.phoneNumberID"),
			APIURL:             conf.GetString("whatsapp.apiURL"),
			DefaultCountryCode: conf.GetString("whatsapp.defaultCountryCode"),
		},
		Database: DatabaseConfig{
			Driver: conf.GetString("database.driver"),
			DSN:    conf.GetString("database.dsn"),
		},
		Scheduler: SchedulerConfig{
			Enabled: conf.GetBool("scheduler.enabled"),
			Spec:    conf.GetString("scheduler.spec"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: no .env lookup, no external credentials.
func NewTestConfig() *Config {
	return &Config{
		Debug:              false,
		TestMode:           true,
		AppName:            "Semillero Digital",
		Build:              "test",
		Env:                "TEST",
		SecretKey:          "test-secret-key",
		JWTExpirationDelta: time.Hour,
		FrontendBaseURL:    "http://localhost:3000",
		CoordinatorEmails:  []string{"coord@test.edu"},
		Server:             ServerConfig{ShutdownTimeout: time.Second},
		Google:             GoogleConfig{RedirectURL: "http://localhost:5000/auth/callback"},
		Email:              EmailConfig{Enabled: true, DefaultFromEmail: "noreply@test.edu", DefaultFromName: "Semillero Digital"},
		WhatsApp:           WhatsAppConfig{DefaultCountryCode: "54"},
		Scheduler:          SchedulerConfig{Spec: "0 * * * *"},
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = CleanString(p, true); p != "" {
			out = append(out, p)
		}
	}
	return out
}
