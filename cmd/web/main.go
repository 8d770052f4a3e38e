package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/kishanss4/corrupt-watch/internal/ai"
	"github.com/kishanss4/corrupt-watch/internal/broker"
	"github.com/kishanss4/corrupt-watch/internal/complaints"
	"github.com/kishanss4/corrupt-watch/internal/envstruct"
	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/kishanss4/corrupt-watch/internal/filestore"
	"github.com/kishanss4/corrupt-watch/internal/logging"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/pprofserver"
	"github.com/kishanss4/corrupt-watch/internal/repositories"
	"github.com/kishanss4/corrupt-watch/internal/sqlite"
	"github.com/kishanss4/corrupt-watch/internal/webauthnhandler"
)

type config struct {
	Addr          string `env:"CORRUPTWATCH_ADDR" envDefault:"localhost:4000"`
	FQDN          string `env:"CORRUPTWATCH_FQDN" envDefault:"localhost"`
	SQLiteURL     string `env:"CORRUPTWATCH_SQLITE_URL" envDefault:"./corruptwatch.sqlite"`
	UploadsDir    string `env:"CORRUPTWATCH_UPLOADS_DIR" envDefault:"./uploads"`
	PprofPort     string `env:"CORRUPTWATCH_PPROF_PORT" envDefault:""`
	OpenAIKey     string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:""`
}

type application struct {
	logger          *slog.Logger
	sessionManager  *scs.SessionManager
	webAuthnHandler *webauthnhandler.WebAuthnHandler
	service         *complaints.Service
	uploadsDir      string
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	logger := slog.New(loggerHandler)

	// Missing .env is fine, the defaults and real environment cover it.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server error", errors.SlogError(err))
		os.Exit(1)
	}
}

// run wires the application and starts the server. It is the testable
// entrypoint: tests pass their own logger and environment lookup and read
// the listen address from the log output.
func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	// pprof listens on localhost so that it's not open to the world. Left
	// disabled unless a port is configured to keep parallel test servers
	// from fighting over it.
	if cfg.PprofPort != "" {
		pprofserver.Launch(cfg.PprofPort, logger)
	}

	dbs, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer func() {
		_ = dbs.Close()
	}()
	go dbs.StartOptimizer(ctx)

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite.DB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour
	sessionManager.Cookie.Secure = true

	users := repositories.NewUserRepository(dbs, logger)
	webAuthnHandler, err := webauthnhandler.New(
		cfg.FQDN, []string{"http://" + cfg.Addr, "https://" + cfg.FQDN},
		logger, sessionManager, users)
	if err != nil {
		return errors.Wrap(err, "new webauthn handler")
	}

	feed := broker.NewFeedBroker[models.ChangeEvent]()
	go feed.Start()
	defer feed.Stop()

	service := complaints.NewService(
		repositories.NewComplaintRepository(dbs, logger),
		repositories.NewEvidenceRepository(dbs, logger),
		repositories.NewAuditLogRepository(dbs, logger),
		repositories.NewNoteRepository(dbs, logger),
		filestore.NewLocal(cfg.UploadsDir, uploadsURLPrefix),
		ai.NewClientWithBaseURL(cfg.OpenAIKey, cfg.OpenAIBaseURL),
		feed,
		logger,
	)

	app := application{
		logger:          logger,
		sessionManager:  sessionManager,
		webAuthnHandler: webAuthnHandler,
		service:         service,
		uploadsDir:      cfg.UploadsDir,
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}

const uploadsURLPrefix = "/uploads"
