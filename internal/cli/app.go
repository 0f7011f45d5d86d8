// Package cli is the interactive front end for the confidential manager:
// a small REPL over the manager facade for enrollment, authentication and
// sealing/opening content.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dkovalov/confidant/internal/config"
	"github.com/dkovalov/confidant/internal/logging"
	"github.com/dkovalov/confidant/internal/manager"
	"github.com/dkovalov/confidant/internal/models"
)

type App struct {
	config  *config.Config
	manager *manager.Manager
	reader  *bufio.Reader
	out     io.Writer

	userName string
	token    string
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	m, err := manager.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &App{
		config:  cfg,
		manager: m,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// Run starts the REPL. It exits on EOF or "exit"/"quit".
func (a *App) Run(ctx context.Context) {
	defer a.manager.Close()

	fmt.Fprintln(a.out, "Welcome to confidant (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "confidant %s> ", a.getStatus())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(a.out, "Available commands: seal, open, stats, grant, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: enroll, login, exit")
			}
		case "enroll":
			a.report(a.Enroll(ctx))
		case "login":
			a.report(a.Login(ctx))
		case "seal":
			a.report(a.Seal(ctx))
		case "open":
			a.report(a.Open(ctx))
		case "stats":
			a.report(a.Stats(ctx))
		case "grant":
			a.report(a.Grant(ctx))
		case "logout":
			a.report(a.Logout(ctx))
		case "exit", "quit":
			return
		default:
			fmt.Fprintf(a.out, "Unknown command: %s\n", parts[0])
		}
	}
}

func (a *App) report(err error) {
	if err != nil {
		fmt.Fprintln(a.out, err.Error())
	}
}

// promptLevel asks until the user enters a valid access level, offering the
// full list on a bad answer.
func (a *App) promptLevel(prompt string) (models.AccessLevel, error) {
	for {
		raw, err := GetSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return "", err
		}
		level, err := models.ParseAccessLevel(raw)
		if err == nil {
			return level, nil
		}
		fmt.Fprintf(a.out, "Valid levels: %s\n", joinLevels())
	}
}

func joinLevels() string {
	names := make([]string, 0, len(models.AccessLevels))
	for _, l := range models.AccessLevels {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}
