package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Kind identifies which namespace an operation lives in.
type Kind int

const (
	// KindTool is a callable operation.
	KindTool Kind = iota
	// KindPrompt is a text template.
	KindPrompt
	// KindResource is a named read-only data item.
	KindResource
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTool:
		return "tool"
	case KindPrompt:
		return "prompt"
	case KindResource:
		return "resource"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Common media types declared by descriptors.
const (
	MIMETypeText = "text/plain"
	MIMETypeJSON = "application/json"
	MIMETypeJPEG = "image/jpeg"
)

// Handler executes one invocation. args has already been validated against the
// descriptor's InputSchema and is always a JSON object.
type Handler func(ctx context.Context, args json.RawMessage) (*Result, error)

// Result is the output of a handler. Exactly one of Text or Data carries the payload.
type Result struct {
	// Text is the textual payload (plain text, JSON, ...)
	Text string

	// Data is a binary payload such as an image
	Data []byte

	// MIMEType describes the payload; Dispatch fills it from the descriptor when empty
	MIMEType string
}

// IsBinary reports whether the result carries binary data.
func (r *Result) IsBinary() bool {
	return r != nil && r.Data != nil
}

// Descriptor declares a single operation.
type Descriptor struct {
	// Kind is the namespace of the operation
	Kind Kind

	// Name is unique within Kind. Resources use their URI.
	Name string

	// Title is an optional human-readable name (resources use it as display name)
	Title string

	// Description tells the client what the operation does
	Description string

	// InputSchema is the declared argument shape; nil means "no arguments"
	InputSchema *jsonschema.Schema

	// MIMEType is the declared media type of the result
	MIMEType string

	// Handler runs the operation
	Handler Handler

	// schemaErr records a failure to derive InputSchema in a typed constructor.
	// Register reports it.
	schemaErr error
}

// NewTool builds a tool descriptor whose schema is derived from In.
// Out values are returned as text when they are strings, passed through when they
// are *Result, and JSON-encoded otherwise.
func NewTool[In, Out any](name, description string, fn func(context.Context, In) (Out, error)) Descriptor {
	schema, err := jsonschema.For[In](nil)
	d := Descriptor{
		Kind:        KindTool,
		Name:        name,
		Description: description,
		InputSchema: schema,
		MIMEType:    mimeTypeFor[Out](),
		schemaErr:   err,
	}
	d.Handler = func(ctx context.Context, args json.RawMessage) (*Result, error) {
		var in In
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, &InvalidArgumentError{Field: "arguments", Reason: err.Error()}
		}
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return encodeOutput(out)
	}
	return d
}

// NewPrompt builds a prompt descriptor. Prompt arguments travel as strings, so every
// field of In should be a string.
func NewPrompt[In any](name, description string, fn func(context.Context, In) (string, error)) Descriptor {
	d := NewTool(name, description, fn)
	d.Kind = KindPrompt
	return d
}

// NewResource builds a resource descriptor named by uri. Resources take no arguments.
func NewResource(uri, title, description, mimeType string, fn func(context.Context) (string, error)) Descriptor {
	return Descriptor{
		Kind:        KindResource,
		Name:        uri,
		Title:       title,
		Description: description,
		InputSchema: &jsonschema.Schema{Type: "object"},
		MIMEType:    mimeType,
		Handler: func(ctx context.Context, _ json.RawMessage) (*Result, error) {
			text, err := fn(ctx)
			if err != nil {
				return nil, err
			}
			return &Result{Text: text, MIMEType: mimeType}, nil
		},
	}
}

func mimeTypeFor[Out any]() string {
	var zero Out
	switch any(zero).(type) {
	case string:
		return MIMETypeText
	case *Result:
		return ""
	default:
		return MIMETypeJSON
	}
}

func encodeOutput(out any) (*Result, error) {
	switch v := out.(type) {
	case string:
		return &Result{Text: v}, nil
	case *Result:
		if v == nil {
			return &Result{}, nil
		}
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode result: %w", err)
		}
		return &Result{Text: string(data), MIMEType: MIMETypeJSON}, nil
	}
}
