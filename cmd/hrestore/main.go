package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"hrestore/internal/app"
	"hrestore/internal/config"
	"hrestore/internal/hr"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Exit codes.
const (
	exitOK     = 0
	exitError  = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, hr.ErrConfiguration):
		return exitConfig
	default:
		return exitError
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
func newApp(cmd *cobra.Command) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := app.LoadConfig(defaults.ConfigPath, defaults)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewApp(cfg, app.Options{Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase prompts on the terminal without echo. When stdin is not a
// terminal the first line of stdin is used.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(os.Stdin)
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// readLine returns the first line of r without its line ending. A final
// line with no newline is accepted.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var rootCmd = &cobra.Command{
	Use:          "hrestore",
	Short:        "Recover files from the editor's local history",
	SilenceUsage: true,
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the latest snapshot of every file under a directory",
	Long: `Scans the editor's local history, picks for every file that lived under
--restore-path the newest snapshot saved inside the time window, and writes it
to the output directory at the same relative path.

Times are local unless they carry a zone. Accepted forms:
  2006-01-02 15:04:05   2006-01-02 15:04   2006-01-02   RFC 3339`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var opts app.RestoreOptions
		opts.TargetDir, _ = flags.GetString("restore-path")
		opts.HistoryDir, _ = flags.GetString("history-dir")
		opts.OutputDir, _ = flags.GetString("output-dir")
		opts.Start, _ = flags.GetString("start-time")
		opts.End, _ = flags.GetString("end-time")
		opts.DaysBack, _ = flags.GetInt("days-back")
		opts.Exclude, _ = flags.GetStringArray("exclude")
		opts.ExcludeFrom, _ = flags.GetString("exclude-from")
		opts.DryRun, _ = flags.GetBool("dry-run")
		opts.Encrypt, _ = flags.GetBool("encrypt")
		if opts.TargetDir == "" {
			return fmt.Errorf("%w: --restore-path is required", hr.ErrConfiguration)
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Restore(cmd.Context(), opts)
		if summary != nil {
			printSummary(summary)
		}
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		return nil
	},
}

func printSummary(s *hr.Summary) {
	fmt.Printf("Time range:   %s\n", s.Window)
	fmt.Printf("Destination:  %s\n", s.Destination)
	fmt.Printf("Folders:      %d scanned, %d skipped\n", s.FoldersScanned, s.FoldersSkipped)
	fmt.Printf("Files found:  %d (%d excluded)\n", s.FilesFound, s.FilesExcluded)

	if s.Status == hr.RunDryRun {
		for _, f := range s.Selected {
			fmt.Printf("  %s  %s\n", f.SnapshotTime.Local().Format("2006-01-02 15:04:05"), f.RelativePath)
		}
		fmt.Println("Dry run: nothing written.")
		return
	}

	fmt.Printf("Restored:     %d\n", s.FilesRestored)
	fmt.Printf("Failed:       %d\n", s.FilesFailed)
	if s.Report != nil {
		for _, f := range s.Report.Failed {
			fmt.Printf("  FAILED [%s] %s: %v\n", f.Kind, f.RelativePath, f.Err)
		}
	}
	if s.FilesFound == 0 {
		fmt.Println("No snapshots found in the time range.")
	}
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past restore runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No restore runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt.Valid {
				duration = r.FinishedAt.Time.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %s  %-8s  %d/%d restored  %d failed  %-8s  %s -> %s\n",
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Status,
				r.FilesRestored,
				r.FilesFound,
				r.FilesFailed,
				duration,
				r.TargetDir,
				r.Destination,
			)
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir, defaults.HistoryDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("History Dir: %s\n", cfg.HistoryDir)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := app.LoadConfig(defaults.ConfigPath, defaults)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("History Dir: %s\n", cfg.HistoryDir)
		fmt.Printf("Output Dir:  %s\n", cfg.OutputDir)
		fmt.Printf("Days Back:   %d\n", cfg.DaysBack)
		fmt.Printf("Output:      %s\n", outputLabel(cfg.Output))
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s (%s)\n", cfg.LogDir, cfg.LogLevel)
		fmt.Printf("Excludes:    %v\n", cfg.Filesystem.Ignore)
		return nil
	},
}

func outputLabel(o config.OutputConfig) string {
	if o.Type == "s3" {
		return fmt.Sprintf("s3://%s/%s", o.S3Bucket, o.S3Prefix)
	}
	if o.Type == "" {
		return "filesystem"
	}
	return o.Type
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used by restore --encrypt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			confirm, err := readPassphrase("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if confirm != passphrase {
				return fmt.Errorf("passphrases do not match")
			}
		}

		if err := a.InitKeys(passphrase); err != nil {
			return err
		}
		fmt.Printf("Public key:  %s\n", a.Config().Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", a.Config().Encryption.PrivateKeyPath)
		return nil
	},
}

// decrypt command
var decryptCmd = &cobra.Command{
	Use:   "decrypt FILE [OUT]",
	Short: "Decrypt a file written by restore --encrypt",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := ""
		if len(args) == 2 {
			out = args[1]
		}

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		written, err := a.Decrypt(args[0], out, passphrase)
		if err != nil {
			return fmt.Errorf("decrypt failed: %w", err)
		}
		fmt.Printf("Decrypted to %s\n", written)
		return nil
	},
}

func init() {
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", hr.ErrConfiguration, err)
	})
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Also print info log lines to stderr")

	restoreCmd.Flags().StringP("restore-path", "r", "", "Directory whose files should be restored (required)")
	restoreCmd.Flags().StringP("history-dir", "d", "", "Editor history directory (default from config)")
	restoreCmd.Flags().StringP("output-dir", "o", "", "Directory to write restored files to (default from config)")
	restoreCmd.Flags().StringP("start-time", "s", "", "Start of the time range (default: end time minus days back)")
	restoreCmd.Flags().StringP("end-time", "e", "", "End of the time range (default: now)")
	restoreCmd.Flags().IntP("days-back", "b", 0, "Days back from the end time when no start time is given (default 7)")
	restoreCmd.Flags().StringArrayP("exclude", "x", nil, "Glob pattern of relative paths to skip (repeatable)")
	restoreCmd.Flags().String("exclude-from", "", "File with one exclude pattern per line")
	restoreCmd.Flags().Bool("dry-run", false, "List what would be restored without writing anything")
	restoreCmd.Flags().Bool("encrypt", false, "Encrypt restored files with the configured age key")
	rootCmd.AddCommand(restoreCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	keysCmd.AddCommand(keysInitCmd)
	rootCmd.AddCommand(keysCmd)

	rootCmd.AddCommand(decryptCmd)
}
