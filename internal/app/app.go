package app

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"time"

	"hrestore/internal/config"
	"hrestore/internal/database"
	"hrestore/internal/encryption"
	"hrestore/internal/fs"
	"hrestore/internal/hr"
	"hrestore/internal/sink"
)

// Options tune how an App is built. The zero value is what the CLI uses.
type Options struct {
	Verbose bool     // send info and debug lines to stderr too
	Clock   hr.Clock // defaults to hr.RealClock
}

// App is the application layer between the CLI and RestoreService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw flag values, and closes the run log and log file on Close.
type App struct {
	cfg     *config.Config
	runLog  hr.RunLog
	logger  hr.Logger
	clock   hr.Clock
	runID   string
	logFile *os.File
}

// fixedID hands out the run ID chosen when the App was built, so the run
// log row and the log lines of one invocation share it.
type fixedID string

func (id fixedID) New() string { return string(id) }

// NewApp creates a fully wired App from the given config.
// The caller must call Close when done.
func NewApp(cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", hr.ErrConfiguration, err)
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hr.ErrConfiguration, err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = hr.RealClock{}
	}
	runID := hr.UUIDGenerator{}.New()

	logger, logFile, err := newLogger(cfg.LogDir, runID, level, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	runLog, err := database.NewRunLogFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening run log: %w", err)
	}

	return &App{
		cfg:     cfg,
		runLog:  runLog,
		logger:  &slogAdapter{l: logger},
		clock:   clock,
		runID:   runID,
		logFile: logFile,
	}, nil
}

// LoadConfig reads the config file at path. A missing file yields the
// built-in defaults; an unreadable or malformed one is a configuration error.
// Fields left empty in the file are filled from defaults.
func LoadConfig(path string, d *Defaults) (*config.Config, error) {
	cfg, err := config.ReadFromFile(path)
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return config.NewConfig(d.BaseDir, d.HistoryDir), nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", hr.ErrConfiguration, err)
	}

	base := config.NewConfig(d.BaseDir, d.HistoryDir)
	if cfg.BaseDir == "" {
		cfg.BaseDir = base.BaseDir
	}
	if cfg.HistoryDir == "" {
		cfg.HistoryDir = base.HistoryDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = base.OutputDir
	}
	if cfg.LogDir == "" {
		cfg.LogDir = base.LogDir
	}
	if cfg.Database.Type == "" {
		cfg.Database = base.Database
	}
	if cfg.Encryption.PublicKeyPath == "" {
		cfg.Encryption.PublicKeyPath = base.Encryption.PublicKeyPath
	}
	if cfg.Encryption.PrivateKeyPath == "" {
		cfg.Encryption.PrivateKeyPath = base.Encryption.PrivateKeyPath
	}
	return cfg, nil
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// RunID returns the ID tagged on this invocation's log lines and run record.
func (a *App) RunID() string {
	return a.runID
}

// RestoreOptions are the raw restore flags. Empty values fall back to config.
type RestoreOptions struct {
	TargetDir   string
	HistoryDir  string
	OutputDir   string
	Start       string
	End         string
	DaysBack    int
	Exclude     []string
	ExcludeFrom string
	DryRun      bool
	Encrypt     bool
}

// Restore resolves the options against config and runs one recovery.
func (a *App) Restore(ctx context.Context, opts RestoreOptions) (*hr.Summary, error) {
	historyDir := firstNonEmpty(opts.HistoryDir, a.cfg.HistoryDir)
	outputDir := firstNonEmpty(opts.OutputDir, a.cfg.OutputDir)
	if opts.DaysBack < 0 {
		return nil, fmt.Errorf("%w: days back must not be negative", hr.ErrConfiguration)
	}
	daysBack := opts.DaysBack
	if daysBack == 0 {
		daysBack = a.cfg.DaysBack
	}

	window, err := hr.ResolveWindow(opts.Start, opts.End, daysBack, a.clock.Now(), time.Local)
	if err != nil {
		return nil, err
	}

	exclude, err := a.excludeMatcher(opts)
	if err != nil {
		return nil, err
	}

	out, err := sink.NewSinkFromConfig(ctx, a.cfg.Output, outputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	if opts.Encrypt {
		enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
		if err != nil {
			return nil, err
		}
		if !enc.IsConfigured() {
			return nil, fmt.Errorf("%w: encryption keys not found, run 'hrestore keys init'", hr.ErrConfiguration)
		}
		out = sink.NewEncryptingSink(out, enc)
	}

	svc := hr.NewRestoreService(out, a.runLog, a.logger, a.clock, fixedID(a.runID))
	return svc.Run(ctx, hr.RestoreRequest{
		HistoryDir: historyDir,
		TargetDir:  opts.TargetDir,
		Window:     window,
		Exclude:    exclude,
		DryRun:     opts.DryRun,
	})
}

func (a *App) excludeMatcher(opts RestoreOptions) (*fs.ExcludeMatcher, error) {
	patterns := append(append([]string{}, a.cfg.Filesystem.Ignore...), opts.Exclude...)
	if opts.ExcludeFrom != "" {
		lines, err := fs.ReadPatternFile(opts.ExcludeFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", hr.ErrConfiguration, err)
		}
		patterns = append(patterns, lines...)
	}
	return fs.NewExcludeMatcher(patterns), nil
}

// History returns the most recent restore runs, newest first.
func (a *App) History(limit int) ([]*hr.RunRecord, error) {
	svc := hr.NewRestoreService(nil, a.runLog, a.logger, a.clock, fixedID(a.runID))
	return svc.History(limit)
}

// InitKeys generates the age key pair used by restore --encrypt.
func (a *App) InitKeys(passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return err
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("generating keys: %w", err)
	}
	a.logger.Info("encryption keys created", "public_key", a.cfg.Encryption.PublicKeyPath)
	return nil
}

// Decrypt writes the plaintext of an encrypted restored file to dst, or next
// to src without its ".age" suffix when dst is empty. Returns the path written.
func (a *App) Decrypt(src, dst, passphrase string) (string, error) {
	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return "", err
	}
	if !enc.IsConfigured() {
		return "", fmt.Errorf("%w: encryption keys not found", hr.ErrConfiguration)
	}
	dctx, err := enc.Unlock(passphrase)
	if err != nil {
		return "", fmt.Errorf("unlocking private key: %w", err)
	}
	out, err := encryption.DecryptFile(dctx, src, dst)
	if err != nil {
		return "", err
	}
	a.logger.Info("file decrypted", "source", src, "output", out)
	return out, nil
}

// Close closes the run log and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.runLog.Close(); err != nil {
		firstErr = fmt.Errorf("closing run log: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
