package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaydb/relay/internal/config"
	"github.com/relaydb/relay/internal/engine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config string
	Set    []string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <chain.json>",
		Short: "Execute a chain document against its database",
		Long: `Execute a chain document: open a connection for the document's software
and credentials, resolve variables, run every statement inside one
transaction, and commit or roll back atomically.

Example:
  relay run order-chain.json
  relay run order-chain.json --set SYS_USER=u10 --config relay.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to relay.yaml (optional)")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "variable override NAME=value (repeatable)")

	return cmd
}

type executedStatement struct {
	SQLID  string `json:"sqlID"`
	SQL    string `json:"sql"`
	Rows   int    `json:"rows"`
	LastID any    `json:"lastID,omitempty"`
}

func runChain(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			_ = out.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "load config", err)
		}
		cfg = loaded
	}

	configureLogging(opts.Verbose, cfg.LogLevel)

	doc, errs := LoadCommand(path, LoadModeFailFast)
	if len(errs) > 0 {
		_ = out.Error(errorCode(errs[0]), errs[0].Error(), nil)
		return WrapExitError(ExitCommandError, "load chain document", errs[0])
	}

	overrides, err := ParseProperties(opts.Set)
	if err != nil {
		_ = out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse overrides", err)
	}

	retry, err := cfg.RetryInterval()
	if err != nil {
		_ = out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "config", err)
	}

	exec := engine.New(engine.WithPoolDefaults(cfg.Pool.MaxConnections, cfg.Pool.MaxRetries, retry))
	defer func() {
		if err := exec.Close(); err != nil {
			slog.Error("closing providers", "error", err)
		}
	}()

	if err := exec.Execute(cmd.Context(), doc, overrides); err != nil {
		_ = out.Error(ErrCodeExecution, err.Error(), nil)
		return WrapExitError(ExitFailure, "chain failed", err)
	}

	var executed []executedStatement
	for _, s := range doc.Statements {
		if !s.Executed {
			continue
		}
		executed = append(executed, executedStatement{
			SQLID:  s.SQLID,
			SQL:    s.RenderedSQL,
			Rows:   len(s.Results),
			LastID: s.LastID,
		})
	}

	if opts.Format == "json" {
		return out.Success(executed)
	}
	for _, s := range executed {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", s.SQLID, s.SQL)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Chain committed: %d statement(s)\n", len(executed))
	return nil
}

// configureLogging sets the default logger. --verbose forces debug.
func configureLogging(verbose bool, level string) {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
