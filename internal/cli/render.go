package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaydb/relay/internal/chain"
	"github.com/relaydb/relay/internal/dialect"
	"github.com/relaydb/relay/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Software string
	Set      []string
}

// RenderedStatement is one statement's dry-run output.
type RenderedStatement struct {
	SQLID    string `json:"sqlID"`
	Variable bool   `json:"variable,omitempty"`
	SQL      string `json:"sql"`
}

// NewRenderCommand creates the render command: a dry run that prints the
// SQL each statement would execute, without touching a database.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <chain.json>",
		Short: "Render a chain document to SQL without executing it",
		Long: `Render every statement of a chain document to SQL text.

Variables resolve from the document's properties and any --set overrides;
back-references cannot resolve without execution and render as null.

Example:
  relay render order-chain.json
  relay render order-chain.json --software postgres --set SYS_USER=u10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Software, "software", "", "dialect override (mysql|postgres|sqlite; default from document, else generic)")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "variable override NAME=value (repeatable)")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

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

	software := opts.Software
	if software == "" {
		software = doc.Software
	}
	d := dialect.ForSoftware(software)

	bindVariables(doc, overrides)

	var rendered []RenderedStatement
	for _, s := range doc.Statements {
		r, err := render.Statement(s, d, nil)
		if err != nil {
			_ = out.Error(ErrCodeStructural, err.Error(), nil)
			return WrapExitError(ExitFailure, "render statement", err)
		}
		rendered = append(rendered, RenderedStatement{
			SQLID:    s.SQLID,
			Variable: s.IsVariableStatement(),
			SQL:      r.SQL,
		})
	}

	if opts.Format == "json" {
		return out.Success(rendered)
	}
	for _, r := range rendered {
		marker := ""
		if r.Variable {
			marker = " (variable)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s: %s\n", r.SQLID, marker, r.SQL)
	}
	return nil
}

// bindVariables binds every required variable from properties and
// overrides so the dry run renders concrete values where it can.
func bindVariables(doc *chain.Command, overrides map[string]any) {
	for _, s := range doc.Statements {
		for _, name := range s.RequiredVariables() {
			if v, ok := s.Variables.Get(name); ok && v != nil {
				continue
			}
			if v, ok := overrides[name]; ok {
				s.SetVariable(name, v)
				continue
			}
			if v, ok := doc.Property(name); ok {
				s.SetVariable(name, v)
			}
		}
	}
}

func errorCode(err error) string {
	if le, ok := err.(*LoadError); ok {
		return le.Code
	}
	return ErrCodeGeneric
}
