// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package commands implements the sqlform command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/canonical/sqlform"
	"github.com/canonical/sqlform/cmd/sqlform/internal/config"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	fs         afero.Fs
	loader     *config.Loader
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

// Execute runs the command line and returns the exit code.
func Execute() int {
	if err := NewRootCommand(config.AppFs).Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand returns the sqlform command, reading files from fs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs, loader: config.NewLoader(fs)}

	cmd := &cobra.Command{
		Use:   "sqlform",
		Short: "Translate query documents into SQL",
		Long: `sqlform translates queries written as YAML documents into SQL for
database drivers using ? or %s markers, or into plain SQL text.

Settings are read from flags, SQLFORM_* environment variables, a .env file
and a .sqlform.yaml file in the working or home directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP("dialect", "d", sqlform.Positional.String(), "output dialect: positional, percent, mysql or plain")
	flags.Bool("json", false, "print the statement as JSON")
	flags.BoolP("verbose", "v", false, "log debug messages")
	flags.StringVar(&a.configFile, "config", "", "config file (default "+config.FileName+")")
	if err := a.loader.BindFlags(flags); err != nil {
		panic(fmt.Sprintf("internal error: %v", err))
	}

	cmd.AddCommand(newRenderCommand(a))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.loader.Load(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.logger.Debug("loaded config", "file", cfg.File, "dialect", cfg.Dialect.String(), "json", cfg.JSON)
	return nil
}
