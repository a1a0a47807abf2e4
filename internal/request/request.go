// Package request decodes named command requests.
//
// A request is a JSON envelope naming a command and carrying its params.
// Params are validated against the embedded CUE schema (one closed
// definition per command) before they are strictly decoded into the
// command's Go params, so an unknown or misspelled field is rejected
// instead of silently ignored.
package request

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/ghostledger/internal/engine"
	"github.com/roach88/ghostledger/internal/ledger"
)

//go:embed schema.cue
var schemaSource string

// Request is the envelope accepted by Build.
type Request struct {
	Command        string          `json:"command"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Params         json.RawMessage `json:"params"`
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Schema is the compiled request schema. It is safe for concurrent use.
type Schema struct {
	mu   sync.Mutex
	ctx  *cue.Context
	root cue.Value
}

var (
	defaultOnce   sync.Once
	defaultSchema *Schema
	defaultErr    error
)

// Default returns the schema compiled from the embedded source.
func Default() (*Schema, error) {
	defaultOnce.Do(func() {
		defaultSchema, defaultErr = Compile(schemaSource)
	})
	return defaultSchema, defaultErr
}

// Compile compiles a request schema.
func Compile(src string) (*Schema, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(src, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &Schema{ctx: ctx, root: root}, nil
}

// Parse strictly decodes a request envelope.
func Parse(data []byte) (Request, error) {
	var req Request
	if err := decodeStrict(data, &req); err != nil {
		return Request{}, ledger.NewValidationError("request: %v", err)
	}
	if req.Command == "" {
		return Request{}, ledger.NewValidationError("request: command is required")
	}
	if len(req.Params) == 0 {
		req.Params = json.RawMessage("{}")
	}
	return req, nil
}

// Validate checks params against the definition of command. It returns all
// violations found.
func (s *Schema) Validate(command string, params json.RawMessage) []FieldError {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := s.root.LookupPath(cue.MakePath(cue.Str("command"), cue.Str(command)))
	if !def.Exists() {
		return []FieldError{{Message: fmt.Sprintf("unknown command %q", command)}}
	}
	value := s.ctx.CompileBytes(params, cue.Filename("params.json"))
	if err := value.Err(); err != nil {
		return fieldErrors(command, err)
	}
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fieldErrors(command, err)
	}
	return nil
}

func fieldErrors(command string, err error) []FieldError {
	var out []FieldError
	for _, e := range cueerrors.Errors(err) {
		path := e.Path()
		if len(path) >= 2 && path[0] == "command" && (path[1] == command || path[1] == strconv.Quote(command)) {
			path = path[2:]
		}
		format, args := e.Msg()
		fe := FieldError{Field: strings.Join(path, "."), Message: fmt.Sprintf(format, args...)}
		if !slices.Contains(out, fe) {
			out = append(out, fe)
		}
	}
	return out
}

// Commands lists the command names the schema defines.
func (s *Schema) Commands() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter, err := s.root.LookupPath(cue.ParsePath("command")).Fields()
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	var names []string
	for iter.Next() {
		names = append(names, iter.Selector().Unquoted())
	}
	slices.Sort(names)
	return names, nil
}

// Build validates req and returns the engine command it names.
func (s *Schema) Build(req Request) (engine.Command, error) {
	if errs := s.Validate(req.Command, req.Params); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, ledger.NewValidationError("%s: %s", req.Command, strings.Join(msgs, "; "))
	}
	build, ok := catalog[req.Command]
	if !ok {
		return nil, ledger.NewValidationError("unknown command %q", req.Command)
	}
	return build(req.Command, req.Params)
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}
