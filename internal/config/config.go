package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"archivist/internal/domain"
)

// DefaultArchiveDir is used when ARCHIVE_DIR is unset
const DefaultArchiveDir = "~/archive"

// Config is the full runtime configuration.
// Relative paths are resolved against ArchiveDir by Load.
type Config struct {
	ArchiveDir     string   `yaml:"archive_dir"`
	Owner          string   `yaml:"owner"`
	SignalAccount  string   `yaml:"signal_account"`
	VIPs           []string `yaml:"vips"`
	IgnorePatterns []string `yaml:"ignore_patterns"`

	Paths    Paths    `yaml:"paths"`
	Mail     Mail     `yaml:"mail"`
	Claude   Claude   `yaml:"claude"`
	Git      Git      `yaml:"git"`
	Server   Server   `yaml:"server"`
	Timeouts Timeouts `yaml:"timeouts"`

	// Lookback bounds the first ingestion run when no cursor exists
	Lookback time.Duration `yaml:"lookback"`
}

// Paths locates every state file
type Paths struct {
	Actions            string `yaml:"actions"`
	Triage             string `yaml:"triage"`
	IngestCursor       string `yaml:"ingest_cursor"`
	NotificationCursor string `yaml:"notification_cursor"`
	People             string `yaml:"people"`
	TriageScript       string `yaml:"triage_script"`
	TriageLog          string `yaml:"triage_log"`
	// ContactIndex is the SQLite file; empty means the XDG data home
	ContactIndex string `yaml:"contact_index"`
}

// Mail selects and configures the mail backend
type Mail struct {
	Backend string `yaml:"backend"` // notmuch or gmail
	Channel string `yaml:"channel"` // mbsync channel
	// GmailDir holds client_secret.json and token.json
	GmailDir  string `yaml:"gmail_dir"`
	RateLimit int    `yaml:"rate_limit"` // Gmail API calls per second
}

// Claude configures reply drafting
type Claude struct {
	Model  string `yaml:"model"`
	Binary string `yaml:"binary"`
}

// Git configures versioning of state files
type Git struct {
	Enabled bool `yaml:"enabled"`
	Push    bool `yaml:"push"`
}

// Server configures the HTTP console
type Server struct {
	Addr      string `yaml:"addr"`
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
}

// Timeouts bounds every external call
type Timeouts struct {
	MailSync   time.Duration `yaml:"mail_sync"`
	MailSearch time.Duration `yaml:"mail_search"`
	MailShow   time.Duration `yaml:"mail_show"`
	Contacts   time.Duration `yaml:"contacts"`
	Alert      time.Duration `yaml:"alert"`
	GitCommit  time.Duration `yaml:"git_commit"`
	GitPush    time.Duration `yaml:"git_push"`
	Lock       time.Duration `yaml:"lock"`
	Generate   time.Duration `yaml:"generate"`
}

const (
	BackendNotmuch = "notmuch"
	BackendGmail   = "gmail"
)

// Defaults returns the configuration used before any file or env override
func Defaults() *Config {
	return &Config{
		ArchiveDir:     DefaultArchiveDir,
		IgnorePatterns: append([]string(nil), domain.DefaultIgnorePatterns...),
		Paths: Paths{
			Actions:            "coordination/next-actions.json",
			Triage:             "docs/communication-triage.json",
			IngestCursor:       "scripts/.check-mail-state.json",
			NotificationCursor: "app/.notification-state.json",
			People:             "private/relationships/people",
			TriageScript:       "scripts/triage-email.py",
			TriageLog:          filepath.Join(os.TempDir(), "archive-triage.log"),
		},
		Mail: Mail{
			Backend:   BackendNotmuch,
			Channel:   "gmail",
			GmailDir:  "~/.config/archivist/gmail",
			RateLimit: 5,
		},
		Claude: Claude{Model: "sonnet", Binary: "claude"},
		Git:    Git{Enabled: true, Push: true},
		Server: Server{Addr: "127.0.0.1:8420", TokenFile: "app/auth_token"},
		Timeouts: Timeouts{
			MailSync:   300 * time.Second,
			MailSearch: 60 * time.Second,
			MailShow:   30 * time.Second,
			Contacts:   30 * time.Second,
			Alert:      30 * time.Second,
			GitCommit:  15 * time.Second,
			GitPush:    30 * time.Second,
			Lock:       10 * time.Second,
			Generate:   120 * time.Second,
		},
		Lookback: 24 * time.Hour,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// $ARCHIVIST_CONFIG or <archive>/archivist.yaml, then environment overrides.
func Load() (*Config, error) {
	cfg := Defaults()
	if env := os.Getenv("ARCHIVE_DIR"); env != "" {
		cfg.ArchiveDir = env
	}

	path, explicit := os.Getenv("ARCHIVIST_CONFIG"), true
	if path == "" {
		path, explicit = filepath.Join(expandHome(cfg.ArchiveDir), "archivist.yaml"), false
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(expandHome(path))
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ARCHIVE_DIR"); v != "" {
		c.ArchiveDir = v
	}
	if v := os.Getenv("MY_EMAIL"); v != "" {
		c.Owner = v
	}
	if v := os.Getenv("SIGNAL_ACCOUNT"); v != "" {
		c.SignalAccount = v
	}
	if v := os.Getenv("ARCHIVIST_VIPS"); v != "" {
		c.VIPs = splitList(v)
	}
	if v := os.Getenv("ARCHIVIST_TOKEN"); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv("ARCHIVIST_MAIL_BACKEND"); v != "" {
		c.Mail.Backend = v
	}
	if v := os.Getenv("ARCHIVIST_CLAUDE_MODEL"); v != "" {
		c.Claude.Model = v
	}
}

func (c *Config) resolvePaths() {
	c.ArchiveDir = expandHome(c.ArchiveDir)
	for _, p := range []*string{
		&c.Paths.Actions,
		&c.Paths.Triage,
		&c.Paths.IngestCursor,
		&c.Paths.NotificationCursor,
		&c.Paths.People,
		&c.Paths.TriageScript,
		&c.Paths.TriageLog,
		&c.Paths.ContactIndex,
		&c.Server.TokenFile,
	} {
		*p = c.resolve(*p)
	}
	c.Mail.GmailDir = expandHome(c.Mail.GmailDir)
}

func (c *Config) resolve(p string) string {
	if p == "" {
		return ""
	}
	p = expandHome(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ArchiveDir, p)
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	switch c.Mail.Backend {
	case BackendNotmuch, BackendGmail:
	default:
		return fmt.Errorf("unknown mail backend %q (want %s or %s)", c.Mail.Backend, BackendNotmuch, BackendGmail)
	}
	if c.ArchiveDir == "" {
		return errors.New("archive directory is not set")
	}
	return nil
}

// Token returns the console token from config, env or the token file
func (c *Config) Token() (string, error) {
	if c.Server.Token != "" {
		return c.Server.Token, nil
	}
	data, err := os.ReadFile(c.Server.TokenFile)
	if err != nil {
		return "", fmt.Errorf("no console token: set ARCHIVIST_TOKEN or create %s: %w", c.Server.TokenFile, err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", fmt.Errorf("token file %s is empty", c.Server.TokenFile)
	}
	return tok, nil
}

// Logger returns the process logger: text on stderr, debug when verbose
func Logger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
