package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/credvita/loanassist/internal/api"
	"github.com/credvita/loanassist/internal/flow"
	"github.com/credvita/loanassist/internal/genai"
	"github.com/credvita/loanassist/internal/lockfile"
	"github.com/credvita/loanassist/internal/otp"
	"github.com/credvita/loanassist/internal/scheduler"
	"github.com/credvita/loanassist/internal/store"
	"github.com/credvita/loanassist/internal/transport"
	"github.com/credvita/loanassist/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for loan assistant state data
	DefaultStateDir = "/var/lib/loanassist"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "loanassist.db"
	// DefaultRetentionDays is how long idle sessions are kept before the
	// nightly cleanup removes them
	DefaultRetentionDays = 30
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	controller, err := buildController(flags)
	if err != nil {
		slog.Error("Failed to initialize conversation controller", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(controller, st, api.WithAddr(*flags.apiAddr))

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := scheduleSessionCleanup(sched, st, *flags.retentionDays); err != nil {
		slog.Error("Failed to schedule session cleanup", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping loan assistant", "addr", *flags.apiAddr, "db_driver", *flags.dbDriver)
	if err := server.Run(ctx); err != nil {
		slog.Error("Loan assistant failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Loan assistant exited successfully")
}

// Config holds environment configuration.
type Config struct {
	DbDriver      string
	DatabaseURL   string
	StateDir      string
	OpenAIKey     string
	APIAddr       string
	OTPTransport  string
	PolicyPath    string
	RetentionDays int
}

// Flags holds command line flag values.
type Flags struct {
	stateDir      *string
	dbDriver      *string
	dbDSN         *string
	openaiKey     *string
	apiAddr       *string
	otpTransport  *string
	policyPath    *string
	retentionDays *int
}

// initializeLogger sets up structured logging. LOANASSIST_DEBUG=true lowers
// the level to debug.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("LOANASSIST_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and the .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DbDriver:      os.Getenv("DB_DRIVER"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("LOANASSIST_STATE_DIR"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		APIAddr:       os.Getenv("API_ADDR"),
		OTPTransport:  os.Getenv("OTP_TRANSPORT"),
		PolicyPath:    os.Getenv("LOAN_POLICY_PATH"),
		RetentionDays: DefaultRetentionDays,
	}
	if v := os.Getenv("SESSION_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("Invalid SESSION_RETENTION_DAYS, using default", "value", v, "default", DefaultRetentionDays)
		} else {
			config.RetentionDays = days
		}
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No LOANASSIST_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory.
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.DbDriver == "" {
		config.DbDriver = "sqlite3"
	}

	slog.Debug("environment variables loaded",
		"DB_DRIVER", config.DbDriver,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"LOANASSIST_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"OTP_TRANSPORT", config.OTPTransport,
		"LOAN_POLICY_PATH", config.PolicyPath)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for loan assistant data (overrides $LOANASSIST_STATE_DIR)"),
		dbDriver:      flag.String("db-driver", config.DbDriver, "database driver, sqlite3 or postgres (overrides $DB_DRIVER)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		openaiKey:     flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		otpTransport:  flag.String("otp-transport", config.OTPTransport, "OTP delivery channel, smtp or twilio (overrides $OTP_TRANSPORT)"),
		policyPath:    flag.String("policy-path", config.PolicyPath, "path to the home-loan policy document for grounded answers (overrides $LOAN_POLICY_PATH)"),
		retentionDays: flag.Int("session-retention-days", config.RetentionDays, "days of inactivity before a session is pruned, 0 disables cleanup (overrides $SESSION_RETENTION_DAYS)"),
	}
	flag.Parse()
	if *flags.apiAddr == "" {
		*flags.apiAddr = api.DefaultAddr
	}
	return flags
}

// buildStore selects the storage backend from the configured driver.
func buildStore(flags Flags) (store.Store, error) {
	switch *flags.dbDriver {
	case "postgres":
		return store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	default:
		return store.NewSQLiteStore(store.WithDSN(*flags.dbDSN))
	}
}

// buildController wires the GenAI oracles and the OTP manager into the
// conversation flow controller. A missing OpenAI key degrades to the
// deterministic fallbacks instead of failing startup.
func buildController(flags Flags) (*flow.Controller, error) {
	var (
		intents   flow.IntentClassifier
		fields    flow.FieldClassifier
		knowledge flow.KnowledgeOracle
		answers   flow.AnswerGenerator
	)
	client, err := genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
	if err != nil {
		slog.Warn("GenAI client unavailable, running on deterministic fallbacks", "error", err)
	} else {
		intents = client
		fields = client
		answers = client
	}

	if *flags.policyPath != "" {
		retriever, err := genai.NewRetriever(*flags.policyPath)
		if err != nil {
			slog.Warn("Policy document unavailable, knowledge answers will be ungrounded", "error", err, "path", *flags.policyPath)
		} else {
			knowledge = retriever
		}
	}

	sender, err := buildOTPSender(flags)
	if err != nil {
		return nil, err
	}

	return flow.NewController(intents, fields, knowledge, answers, otp.NewManager(sender)), nil
}

// buildOTPSender selects the OTP delivery channel.
func buildOTPSender(flags Flags) (transport.Sender, error) {
	switch *flags.otpTransport {
	case "twilio":
		return transport.NewTwilioSender()
	default:
		return transport.NewSMTPSender()
	}
}

// sessionCleanupCron runs the prune nightly during low traffic.
const sessionCleanupCron = "0 3 * * *"

// scheduleSessionCleanup registers the nightly job that prunes sessions idle
// longer than the retention window. Transcripts are retained.
func scheduleSessionCleanup(sched *scheduler.Scheduler, st store.Store, retentionDays int) error {
	if retentionDays <= 0 {
		slog.Info("Session cleanup disabled", "retention_days", retentionDays)
		return nil
	}
	retention := time.Duration(retentionDays) * 24 * time.Hour
	return sched.AddJob(sessionCleanupCron, func() {
		removed, err := st.DeleteStaleSessions(time.Now().Add(-retention))
		if err != nil {
			slog.Error("Session cleanup failed", "error", err)
			return
		}
		slog.Info("Session cleanup completed", "removed", removed, "retention_days", retentionDays)
	})
}
