// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/canonical/sqlform"
	"github.com/canonical/sqlform/cmd/sqlform/internal/document"
	"github.com/canonical/sqlform/cmd/sqlform/internal/watch"
	"github.com/canonical/sqlform/internal/translate"
)

func newRenderCommand(a *app) *cobra.Command {
	var watchFile bool

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Translate a query document",
		Long: `Translate the query document in file, or read from standard input when
no file or "-" is given, and print the statement.`,
		Example: `  sqlform render query.yaml
  sqlform render -d percent --json query.yaml
  cat query.yaml | sqlform render -d plain`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			if !watchFile {
				return a.render(cmd, path)
			}
			if path == "-" {
				return errors.New("cannot watch standard input")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watch.Run(ctx, a.logger, path, func() error {
				return a.render(cmd, path)
			})
		},
	}
	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "render again each time the file is written")
	return cmd
}

// render prints the statement of the query document at path.
func (a *app) render(cmd *cobra.Command, path string) error {
	data, err := a.readInput(cmd, path)
	if err != nil {
		return err
	}
	doc, err := document.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	q, err := doc.Query()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	stmt, err := sqlform.Translate(a.cfg.Dialect, q)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, name := range doc.Unreferenced() {
		a.logger.Debug("field not referenced by template", "file", path, "field", name)
	}
	a.logger.Debug("rendered query", "file", path, "dialect", a.cfg.Dialect.String(), "params", len(stmt.Params))

	out := cmd.OutOrStdout()
	if a.cfg.JSON {
		return writeJSON(out, a.cfg.Dialect, stmt)
	}
	return writeText(out, stmt)
}

func (a *app) readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("cannot read standard input: %w", err)
		}
		return data, nil
	}
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read query document: %w", err)
	}
	return data, nil
}

type jsonStatement struct {
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
	Params  []any  `json:"params"`
}

func writeJSON(w io.Writer, d sqlform.Dialect, stmt *sqlform.Statement) error {
	params := stmt.Params
	if params == nil {
		params = []any{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonStatement{Dialect: d.String(), SQL: stmt.SQL, Params: params})
}

// writeText writes the SQL followed by a comment line for each parameter.
func writeText(w io.Writer, stmt *sqlform.Statement) error {
	if _, err := fmt.Fprintln(w, stmt.SQL); err != nil {
		return err
	}
	for i, p := range stmt.Params {
		lit, err := translate.Literal(p)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "-- param %d: %s\n", i+1, lit); err != nil {
			return err
		}
	}
	return nil
}
