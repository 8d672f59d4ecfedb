package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/wikiwalk/internal/audit"
	"github.com/ziadkadry99/wikiwalk/internal/auth"
	"github.com/ziadkadry99/wikiwalk/internal/config"
	"github.com/ziadkadry99/wikiwalk/internal/db"
	"github.com/ziadkadry99/wikiwalk/internal/geo"
	"github.com/ziadkadry99/wikiwalk/internal/wiki"
)

// PasswordEnv lets scripts supply the wiki password without a prompt.
const PasswordEnv = "WIKIWALK_PASSWORD"

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `wikiwalk init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	if !verbose {
		// The wiki client logs degraded detail fetches; keep CLI output clean.
		log.SetOutput(io.Discard)
	}
	return cfg, nil
}

// newWikiClient creates a wiki client from config.
func newWikiClient(cfg *config.Config) *wiki.Client {
	return wiki.NewClient(cfg.WikiClientConfig(), nil)
}

// openDatabase opens the audit database under the data directory.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", cfg.DataDir, err)
	}
	database, err := db.Open(filepath.Join(cfg.DataDir, "wikiwalk.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// promptCredentials asks for whatever part of the credentials is missing.
// The password is taken from WIKIWALK_PASSWORD when set.
func promptCredentials(username string) (string, string, error) {
	if username == "" {
		prompt := promptui.Prompt{Label: "Wiki username"}
		u, err := prompt.Run()
		if err != nil {
			return "", "", fmt.Errorf("username: %w", err)
		}
		username = u
	}

	password := os.Getenv(PasswordEnv)
	if password == "" {
		prompt := promptui.Prompt{Label: "Password", Mask: '*'}
		p, err := prompt.Run()
		if err != nil {
			return "", "", fmt.Errorf("password: %w", err)
		}
		password = p
	}
	return strings.TrimSpace(username), password, nil
}

// loginSession logs in a fresh session. CLI sessions last for one command.
func loginSession(ctx context.Context, client *wiki.Client, auditLog audit.Logger, username string) (*auth.Session, error) {
	username, password, err := promptCredentials(username)
	if err != nil {
		return nil, err
	}
	session := auth.NewSession(client, auditLog)
	if err := session.Login(ctx, username, password); err != nil {
		return nil, err
	}
	return session, nil
}

// truncate shortens s to at most max runes, adding "..." if truncated.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func formatPoint(p geo.Point) string {
	return fmt.Sprintf("%.5f, %.5f", p.Lat, p.Lon)
}
