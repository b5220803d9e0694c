// Package cli wires configuration, logging and the storage backends into
// the blobnav commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/slmtnm/blobnav/internal/clipboard"
	"github.com/slmtnm/blobnav/internal/config"
	"github.com/slmtnm/blobnav/internal/icons"
	"github.com/slmtnm/blobnav/internal/logging"
	"github.com/slmtnm/blobnav/internal/store"
	"github.com/slmtnm/blobnav/internal/store/azure"
	"github.com/slmtnm/blobnav/internal/store/local"
	"github.com/slmtnm/blobnav/internal/store/s3"
	"github.com/slmtnm/blobnav/internal/tui"
)

// Version is set at build time via ldflags.
var Version = "dev"

// app carries the state shared by every command once flags are parsed.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log logging.Logger
}

// NewRootCmd builds the command tree. Each call gets its own viper instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "blobnav [container]",
		Short: "Terminal browser for blob storage",
		Long: `blobnav browses Azure Blob Storage containers, S3 buckets or local
directories as a tree of folders. Files and whole folders can be inspected,
previewed, cloned, deleted and downloaded.

Azure credentials are read from AZURE_STORAGE_ACCOUNT and
AZURE_STORAGE_ACCESS_KEY. S3 credentials are read from an s3cmd-style .s3cfg.`,
		Version:           Version,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
		RunE:              a.runBrowser,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("backend", "", "storage backend: azure, s3 or local")
	flags.String("azure-endpoint", "", "Azure blob service URL (for emulators)")
	flags.String("local-root", "", "root directory for the local backend")
	flags.String("download-dir", "", "default download destination")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-file", "", "log file path")
	flags.String("icons", "", "icon set: unicode, ascii or minimal")

	for key, flag := range map[string]string{
		config.KeyBackend:       "backend",
		config.KeyAzureEndpoint: "azure-endpoint",
		config.KeyLocalRoot:     "local-root",
		config.KeyDownloadDir:   "download-dir",
		config.KeyLogLevel:      "log-level",
		config.KeyLogFile:       "log-file",
		config.KeyIcons:         "icons",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(newLsCmd(a))
	rootCmd.AddCommand(newDownloadCmd(a))

	return rootCmd
}

// Execute is the entry point for the CLI. It should be called from main.go.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup resolves the configuration and opens the log file.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	config.SetDefaults(a.v)
	if err := config.BindEnv(a.v); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.NewFileLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log

	a.log.Info("starting blobnav",
		logging.String("version", Version),
		logging.String("command", cmd.Name()),
		logging.String("backend", string(cfg.Backend)),
	)
	return nil
}

func (a *app) teardown(*cobra.Command, []string) {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// openDirectory connects to the configured backend.
func (a *app) openDirectory(ctx context.Context, in *os.File, out io.Writer) (store.Directory, error) {
	switch a.cfg.Backend {
	case store.BackendAzure:
		dir, err := azure.New(azure.Config{
			Account:   a.cfg.Azure.Account,
			AccessKey: a.cfg.Azure.AccessKey,
			Endpoint:  a.cfg.Azure.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return dir, nil

	case store.BackendS3:
		s3cfg, err := config.LoadS3Config()
		if errors.Is(err, config.ErrS3ConfigNotFound) && config.CanPrompt(in) {
			fmt.Fprintf(out, "No S3 configuration found: %s\n\n", err)
			s3cfg, err = config.InteractiveS3Setup(in, out)
		}
		if err != nil {
			return nil, err
		}
		dir, err := s3.New(ctx, s3cfg.StoreConfig())
		if err != nil {
			return nil, err
		}
		return dir, nil

	case store.BackendLocal:
		dir, err := local.New(a.cfg.LocalRoot)
		if err != nil {
			return nil, err
		}
		return dir, nil
	}
	return nil, fmt.Errorf("unsupported backend %q", a.cfg.Backend)
}

// runBrowser starts the interactive browser, optionally jumping into the
// container named by the first argument.
func (a *app) runBrowser(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the browser needs an interactive terminal; use 'blobnav ls' or 'blobnav download' instead")
	}

	dir, err := a.openDirectory(cmd.Context(), os.Stdin, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	opts := tui.Options{
		Directory:   dir,
		Logger:      a.log,
		Icons:       icons.Detect(a.cfg.Icons, os.LookupEnv),
		Clipboard:   clipboard.New(os.Stderr),
		DownloadDir: a.cfg.DownloadDir,
	}
	if len(args) == 1 {
		opts.InitialContainer = args[0]
	}

	program := tea.NewProgram(tui.New(opts), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
