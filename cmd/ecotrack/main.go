package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ecotrack-app/ecotrack/internal/assistant"
	"github.com/ecotrack-app/ecotrack/internal/config"
	"github.com/ecotrack-app/ecotrack/internal/dispatch"
	"github.com/ecotrack-app/ecotrack/internal/ecotrack"
	"github.com/ecotrack-app/ecotrack/internal/http_api"
	"github.com/ecotrack-app/ecotrack/internal/models"
	"github.com/ecotrack-app/ecotrack/internal/push"
	"github.com/ecotrack-app/ecotrack/internal/repository"
	"github.com/ecotrack-app/ecotrack/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "ecotrack",
		Usage: "EcoTrack is a sustainability tracking service with daily reminder notifications",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.IntFlag{Name: "api-port", Aliases: []string{"a"}, Usage: "API server port"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Action: func(c *cli.Context) error {
			return run(c)
		},
		Commands: []*cli.Command{
			{
				Name:  "dispatch",
				Usage: "Run one notification dispatch pass and exit",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "Log would-be sends without contacting providers"},
					&cli.StringFlag{Name: "user", Usage: "Send one personalized reminder to this username instead"},
				},
				Action: func(c *cli.Context) error {
					return runDispatch(c)
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("api-port") {
		cfg.APIPort = c.Int("api-port")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}

	return cfg, nil
}

// buildRunner wires the repository, push senders and assistant into a
// dispatch runner. Shared by the server and the one-shot command.
func buildRunner(ctx context.Context, cfg *config.Config, log *logger.Logger) (*dispatch.Runner, models.Repository, models.Assistant, error) {
	db, err := repository.NewPostgresDB(cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresHost, cfg.PostgresPort, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	fcmClient, err := push.NewFCMClient(ctx, cfg.FirebaseCredentialsFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize FCM: %v", err)
	}
	senders := map[string]models.Sender{
		models.ProviderFCM:       push.NewFCMSender(fcmClient, log),
		models.ProviderOneSignal: push.NewOneSignalSender(cfg.OneSignalAppID, cfg.OneSignalAPIKey, cfg.OneSignalAPIURL, cfg.ProviderTimeout, log),
	}

	aiAssistant := assistant.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)

	runner := dispatch.NewRunner(db, aiAssistant, senders, cfg.Location, log)
	return runner, db, aiAssistant, nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner, db, aiAssistant, err := buildRunner(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Create EcoTrack instance
	ecotrackApp := ecotrack.NewEcoTrack(db, aiAssistant, cfg.Location, log)

	apiServer := http_api.NewHTTPServer(ecotrackApp, runner, cfg.APIPort, cfg.CronSecret, cfg.Location, log)

	go apiServer.Start()
	go runner.Run(ctx, cfg.DispatchInterval)

	// Wait for a termination signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancel()
	if err := apiServer.Shutdown(); err != nil {
		log.Error("Shutdown error: ", err)
	}
	return nil
}

func runDispatch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	runner, _, _, err := buildRunner(ctx, cfg, log)
	if err != nil {
		return err
	}
	runner.SetDryRun(c.Bool("dry-run"))

	if username := c.String("user"); username != "" {
		return runner.SendToUser(ctx, username)
	}

	summary := runner.RunOnce(ctx, time.Now())
	log.Infof("Dispatch finished: candidates=%d sent=%d failed=%d skipped=%d",
		summary.TotalCandidates, summary.Sent, summary.Failed, summary.Skipped)
	return nil
}
