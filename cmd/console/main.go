package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	runner := NewRunner(logger)

	app := &cli.Command{
		Name:    "legalease-admin",
		Usage:   "LegalEase superadmin console for locked-account management",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the admin API",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("LEGALEASE_API_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Superadmin access token",
				Sources: cli.EnvVars("LEGALEASE_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "amqp-url",
				Usage:   "AMQP broker for cross-console session sync (optional)",
				Sources: cli.EnvVars("LEGALEASE_AMQP_URL"),
			},
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
