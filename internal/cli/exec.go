package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/readmodel"
	"github.com/roach88/ghostledger/internal/request"
)

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <request.json|->",
		Short: "Execute a JSON command request",
		Long: `Execute a command request of the form

  {"command": "vault-deposit", "idempotency_key": "k1", "params": {...}}

The params are validated against the request schema before the command runs.
A request with an idempotency key returns the first response on repeat.

Examples:
  ghostledger exec request.json
  echo '{"command":"debt-create","params":{...}}' | ghostledger exec -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			data, err := readInput(cmd, args[0])
			if err != nil {
				return f.Fail(err)
			}
			req, err := request.Parse(data)
			if err != nil {
				return f.Fail(ledger.NewValidationError("%v", err))
			}
			if req.IdempotencyKey == "" {
				req.IdempotencyKey = rootOpts.IdempotencyKey
			}
			return rootOpts.execute(cmd, req)
		},
	}
}

// ValidateResult is the output of the validate command.
type ValidateResult struct {
	Command string               `json:"command"`
	Valid   bool                 `json:"valid"`
	Errors  []request.FieldError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <request.json|->",
		Short: "Validate a JSON command request without executing it",
		Long: `Validate a command request against the request schema.

Exit codes:
  0 - Request is valid
  1 - Request violates the schema
  2 - Command error (unreadable file, etc.)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			data, err := readInput(cmd, args[0])
			if err != nil {
				return f.Fail(err)
			}
			req, err := request.Parse(data)
			if err != nil {
				return f.Fail(ledger.NewValidationError("%v", err))
			}
			schema, err := request.Default()
			if err != nil {
				return f.Fail(err)
			}
			res := ValidateResult{Command: req.Command, Errors: schema.Validate(req.Command, req.Params)}
			res.Valid = len(res.Errors) == 0

			if f.Format == "json" {
				if err := f.Success(res); err != nil {
					return err
				}
			} else if res.Valid {
				fmt.Fprintf(f.Writer, "✓ %s request is valid\n", req.Command)
			} else {
				fmt.Fprintf(f.Writer, "✗ %s request is invalid:\n", req.Command)
				for _, e := range res.Errors {
					fmt.Fprintf(f.Writer, "  %s\n", e.Error())
				}
			}
			if !res.Valid {
				return &ExitError{Code: ExitFailure, Message: "request is invalid", Reported: true}
			}
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read request", err)
	}
	return data, nil
}

// run builds a request from a command name and params and executes it.
func (o *RootOptions) run(cmd *cobra.Command, name string, params map[string]any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return o.formatter(cmd).Fail(err)
	}
	return o.execute(cmd, request.Request{Command: name, IdempotencyKey: o.IdempotencyKey, Params: raw})
}

// execute validates req, runs it through the engine and renders the response.
func (o *RootOptions) execute(cmd *cobra.Command, req request.Request) error {
	schema, err := request.Default()
	if err != nil {
		return o.formatter(cmd).Fail(err)
	}
	command, err := schema.Build(req)
	if err != nil {
		return o.formatter(cmd).Fail(err)
	}
	return o.withSession(cmd, func(s *session, f *OutputFormatter) error {
		resp, err := s.engine.Execute(context.Background(), command, req.IdempotencyKey)
		if err != nil {
			return f.Fail(err)
		}
		return render(f, resp)
	})
}

// render writes an engine response. JSON output embeds the response as is;
// text output lists the appended events as timeline lines and indents the
// result.
func render(f *OutputFormatter, resp json.RawMessage) error {
	if f.Format == "json" {
		return f.Success(resp)
	}

	var body struct {
		Command string          `json:"command"`
		Events  json.RawMessage `json:"events"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(resp, &body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	events, err := ledger.UnmarshalLog(body.Events)
	if err != nil {
		return err
	}

	fmt.Fprintf(f.Writer, "%s: %d event(s)\n", body.Command, len(events))
	for _, e := range readmodel.Timeline(events) {
		fmt.Fprintf(f.Writer, "  %s %s %s\n", e.Date, e.Type, e.Description)
	}
	if len(body.Result) > 0 {
		var out bytes.Buffer
		if err := json.Indent(&out, body.Result, "  ", "  "); err != nil {
			return err
		}
		fmt.Fprintf(f.Writer, "  result: %s\n", strings.TrimSpace(out.String()))
	}
	return nil
}
