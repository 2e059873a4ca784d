package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/relaydb/relay/internal/chain"
)

//go:embed schema.cue
var schemaCUE string

// LoadMode controls how errors are handled during document loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadError represents an error that occurred during document loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeRead       = "E002" // File read error
	ErrCodeParse      = "E003" // JSON decode error
	ErrCodeSchema     = "E004" // CUE schema violation
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeStructural = "E101" // Statement-level validation error
	ErrCodeExecution  = "E201" // Chain execution failure
)

// LoadCommand reads, schema-checks, and decodes one chain document.
// Schema violations and structural problems are collected per mode; a
// decodable document is returned even when structural errors exist, so
// callers can report everything at once.
func LoadCommand(path string, mode LoadMode) (*chain.Command, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("chain document not found: %s", path)}}
		}
		return nil, []error{&LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("reading %s: %v", path, err)}}
	}

	var errs []error

	if schemaErrs := validateSchema(path, data); len(schemaErrs) > 0 {
		errs = append(errs, schemaErrs...)
		if mode == LoadModeFailFast {
			return nil, errs
		}
	}

	cmd, err := chain.DecodeCommand(data)
	if err != nil {
		errs = append(errs, &LoadError{Code: ErrCodeParse, Message: err.Error()})
		return nil, errs
	}

	for _, verr := range chain.Validate(cmd) {
		errs = append(errs, &LoadError{Code: ErrCodeStructural, Message: verr.Error()})
		if mode == LoadModeFailFast {
			return cmd, errs
		}
	}

	return cmd, errs
}

// validateSchema unifies the document with the embedded CUE schema.
func validateSchema(path string, data []byte) []error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("compile schema: %v", err)}}
	}
	commandSchema := schema.LookupPath(cue.ParsePath("#Command"))

	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return []error{&LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parse %s: %v", path, err)}}
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return []error{&LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("build %s: %v", path, err)}}
	}

	unified := commandSchema.Unify(doc)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		var errs []error
		for _, e := range cueerrors.Errors(err) {
			errs = append(errs, &LoadError{Code: ErrCodeSchema, Message: e.Error()})
		}
		return errs
	}
	return nil
}
