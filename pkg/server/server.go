// Package server exposes a sealed operation registry over the Model Context Protocol.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/entrhq/toolhost/pkg/logging"
	"github.com/entrhq/toolhost/pkg/registry"
	"github.com/entrhq/toolhost/pkg/resources"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TransportKind selects how the server talks to its client.
type TransportKind string

const (
	// TransportStdio serves a single client over stdin/stdout
	TransportStdio TransportKind = "stdio"

	// TransportHTTP serves the streamable HTTP transport
	TransportHTTP TransportKind = "http"
)

const (
	// DefaultHTTPAddr binds to localhost only
	DefaultHTTPAddr = "localhost:8081"

	shutdownTimeout = 5 * time.Second
)

// Options configure the server.
type Options struct {
	Name      string
	Version   string
	Transport TransportKind
	HTTPAddr  string
}

// Server adapts a registry to an MCP server.
type Server struct {
	reg    *registry.Registry
	mcp    *mcp.Server
	opts   Options
	logger *logging.Logger
}

// New creates a server for reg, which must already be sealed.
func New(reg *registry.Registry, opts Options, logger *logging.Logger) (*Server, error) {
	if reg == nil || !reg.Sealed() {
		return nil, errors.New("registry must be sealed before serving")
	}
	if opts.Transport == "" {
		opts.Transport = TransportStdio
	}

	s := &Server{
		reg:    reg,
		opts:   opts,
		logger: logger,
		mcp:    mcp.NewServer(&mcp.Implementation{Name: opts.Name, Version: opts.Version}, nil),
	}

	for _, d := range reg.List(registry.KindTool) {
		s.mcp.AddTool(&mcp.Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
		}, s.toolHandler(d))
	}
	for _, d := range reg.List(registry.KindPrompt) {
		s.mcp.AddPrompt(&mcp.Prompt{
			Name:        d.Name,
			Description: d.Description,
			Arguments:   promptArguments(d.InputSchema),
		}, s.promptHandler(d))
	}
	for _, d := range reg.List(registry.KindResource) {
		name := d.Title
		if name == "" {
			name = d.Name
		}
		s.mcp.AddResource(&mcp.Resource{
			URI:         d.Name,
			Name:        name,
			Description: d.Description,
			MIMEType:    d.MIMEType,
		}, s.resourceHandler(d))
	}

	return s, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves the configured transport and blocks until ctx ends or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	switch s.opts.Transport {
	case TransportStdio:
		return s.Serve(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return s.serveHTTP(ctx)
	default:
		return fmt.Errorf("transport %q is not supported", s.opts.Transport)
	}
}

// Serve runs the server on transport until ctx ends or the session closes.
func (s *Server) Serve(ctx context.Context, transport mcp.Transport) error {
	s.logger.Infof("serving %d tools, %d prompts, %d resources",
		len(s.reg.List(registry.KindTool)), len(s.reg.List(registry.KindPrompt)), len(s.reg.List(registry.KindResource)))

	err := s.mcp.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	addr := s.opts.HTTPAddr
	if addr == "" {
		addr = DefaultHTTPAddr
	}

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on http://%s", addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}
		return nil
	}
}

// dispatch runs one invocation and logs its outcome.
func (s *Server) dispatch(ctx context.Context, kind registry.Kind, name string, args json.RawMessage) (*registry.Result, error) {
	id := uuid.NewString()
	start := time.Now()
	s.logger.Debugf("[%s] %s %q started", id, kind, name)

	result, err := s.reg.Dispatch(ctx, kind, name, args)
	if err != nil {
		s.logger.Warnf("[%s] %s %q failed after %s: %v", id, kind, name, time.Since(start), err)
		return nil, err
	}
	s.logger.Infof("[%s] %s %q completed in %s", id, kind, name, time.Since(start))
	return result, nil
}

func (s *Server) toolHandler(d registry.Descriptor) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}

		result, err := s.dispatch(ctx, registry.KindTool, d.Name, args)
		if err != nil {
			return toolError(err), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{toolContent(result)},
		}, nil
	}
}

func (s *Server) promptHandler(d registry.Descriptor) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args json.RawMessage
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			data, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return nil, fmt.Errorf("encode prompt arguments: %w", err)
			}
			args = data
		}

		result, err := s.dispatch(ctx, registry.KindPrompt, d.Name, args)
		if err != nil {
			return nil, protocolError(err)
		}
		return &mcp.GetPromptResult{
			Description: d.Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: result.Text},
				},
			},
		}, nil
	}
}

func (s *Server) resourceHandler(d registry.Descriptor) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := d.Name
		if req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		result, err := s.dispatch(ctx, registry.KindResource, d.Name, nil)
		if err != nil {
			if registry.CodeOf(err) == resources.CodeResourceNotFound {
				return nil, mcp.ResourceNotFoundError(uri)
			}
			return nil, protocolError(err)
		}

		contents := &mcp.ResourceContents{URI: uri, MIMEType: result.MIMEType}
		if result.IsBinary() {
			contents.Blob = result.Data
		} else {
			contents.Text = result.Text
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{contents},
		}, nil
	}
}

// toolError reports a failed tool call in-band so the model can see it.
func toolError(err error) *mcp.CallToolResult {
	env := registry.Envelope(err)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: env.Message}},
		Meta:    mcp.Meta{"code": env.Code},
	}
}

func toolContent(result *registry.Result) mcp.Content {
	if result.IsBinary() {
		return &mcp.ImageContent{Data: result.Data, MIMEType: result.MIMEType}
	}
	return &mcp.TextContent{Text: result.Text}
}

func protocolError(err error) error {
	env := registry.Envelope(err)
	return fmt.Errorf("%s: %s", env.Code, env.Message)
}

// promptArguments lists the schema's properties as prompt arguments, sorted by name.
func promptArguments(schema *jsonschema.Schema) []*mcp.PromptArgument {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]*mcp.PromptArgument, 0, len(names))
	for _, name := range names {
		arg := &mcp.PromptArgument{Name: name, Required: required[name]}
		if prop := schema.Properties[name]; prop != nil {
			arg.Description = prop.Description
		}
		args = append(args, arg)
	}
	return args
}
