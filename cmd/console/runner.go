package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/legalease/legalease-admin/internal/client"
	"github.com/legalease/legalease-admin/internal/coordinator"
	"github.com/legalease/legalease-admin/internal/models"
	"github.com/legalease/legalease-admin/internal/session"
	"github.com/legalease/legalease-admin/internal/tui"
	"github.com/legalease/legalease-admin/pkg/broadcast"
)

const sessionChannelName = "legalease.session-sync"

// Runner wires CLI commands to the admin client and coordinator.
type Runner struct {
	logger *log.Logger
}

func NewRunner(logger *log.Logger) *Runner {
	return &Runner{logger: logger}
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "console",
			Usage:  "Interactive locked-account console",
			Action: r.Console,
		},
		{
			Name:   "locked",
			Usage:  "List currently locked accounts",
			Action: r.Locked,
		},
		{
			Name:      "unlock",
			Usage:     "Unlock one account by user id",
			ArgsUsage: "<user_id>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "reason",
					Usage: "Reason recorded in the audit trail",
				},
			},
			Action: r.Unlock,
		},
	}
}

// tokenClaims is the subset of the access token payload the console reads.
// The server remains the authority; this only gates the initial fetch so a
// non-superadmin token fails fast instead of collecting 403s.
type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	JTI   string `json:"jti"`
}

func parseTokenClaims(token string) (*tokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.New("token is not a JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode token payload: %w", err)
	}
	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse token payload: %w", err)
	}
	return &claims, nil
}

func (r *Runner) buildClient(cmd *cli.Command) (*client.Client, *tokenClaims, error) {
	token := cmd.String("token")
	if token == "" {
		return nil, nil, errors.New("a superadmin token is required (--token or LEGALEASE_TOKEN)")
	}
	claims, err := parseTokenClaims(token)
	if err != nil {
		return nil, nil, err
	}
	return client.New(cmd.String("api-url"), token), claims, nil
}

// Console runs the interactive TUI with cross-console session sync.
func (r *Runner) Console(ctx context.Context, cmd *cli.Command) error {
	api, claims, err := r.buildClient(cmd)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs move to a file for the
	// duration of the interactive session.
	logPath := filepath.Join(os.TempDir(), "legalease-console.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	r.logger.SetOutput(logFile)

	slogger := slog.New(r.logger)

	var opener broadcast.Opener
	if amqpURL := cmd.String("amqp-url"); amqpURL != "" {
		group, err := broadcast.NewAMQPGroup(amqpURL)
		if err != nil {
			r.logger.Warn("session sync unavailable, continuing without it", "error", err)
		} else {
			defer group.Close()
			opener = group
		}
	}

	sync := session.NewSynchronizer(opener, sessionChannelName, slogger)
	sessionID := claims.JTI
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	sync.Initialize(session.Info{SessionID: sessionID, UserEmail: claims.Email})
	defer sync.Destroy()

	if claims.Role != models.RoleSuperadmin {
		return fmt.Errorf("token role %q is not superadmin", claims.Role)
	}

	coord := coordinator.New(api, slogger)
	coord.SetAuthorized(ctx, true)

	model := tui.NewModel(ctx, coord, claims.Email)
	program := tea.NewProgram(model, tea.WithAltScreen())

	sync.OnInvalidated(func(sid string) {
		program.Send(tui.SessionInvalidatedMsg{SessionID: sid})
	})

	if _, err := program.Run(); err != nil {
		return err
	}

	// Tell sibling consoles this session is done, bounded wait included.
	sync.EndSession(ctx, true)
	return nil
}

// Locked prints the locked-account list once and exits.
func (r *Runner) Locked(ctx context.Context, cmd *cli.Command) error {
	api, _, err := r.buildClient(cmd)
	if err != nil {
		return err
	}

	accounts, err := api.ListLockedAccounts(ctx)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		fmt.Println("No locked accounts.")
		return nil
	}

	for _, account := range accounts {
		reason := ""
		if account.LockoutReason != nil {
			reason = *account.LockoutReason
		}
		fmt.Printf("%d\t%s\t%s\t%d failed\t%dm remaining\t%s\n",
			account.UserID, account.Email, account.Role,
			account.FailedAttempts, account.RemainingLockoutMinutes, reason)
	}
	return nil
}

// Unlock unlocks a single account without entering the TUI.
func (r *Runner) Unlock(ctx context.Context, cmd *cli.Command) error {
	api, _, err := r.buildClient(cmd)
	if err != nil {
		return err
	}

	args := cmd.Args()
	if args.Len() != 1 {
		return errors.New("usage: unlock <user_id>")
	}
	userID, err := strconv.ParseInt(args.First(), 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Errorf("invalid user id %q", args.First())
	}

	resp, err := api.UnlockAccount(ctx, userID, cmd.String("reason"))
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			return errors.New(apiErr.Detail)
		}
		return err
	}

	if !resp.Unlocked {
		r.logger.Warn(resp.Message, "user_id", resp.UserID)
		return nil
	}
	r.logger.Info(resp.Message, "user_id", resp.UserID, "email", resp.Email)
	return nil
}
