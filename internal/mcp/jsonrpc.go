// Package mcp serves repohealth scoring to MCP clients over stdio using
// line-delimited JSON-RPC 2.0.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// protocolVersion is the MCP revision implemented by the server.
const protocolVersion = "2024-11-05"

// maxLineBytes bounds a single request line.
const maxLineBytes = 4 << 20

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// Server reads requests from a reader and writes one response line per
// request to a writer. Notifications get no response.
type Server struct {
	tools   []toolDef
	methods map[string]methodHandler
	backend Backend
	version string
}

type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     toolHandler
}

type toolHandler func(ctx context.Context, args json.RawMessage) (any, error)

// methodHandler answers one JSON-RPC method. A non-nil *rpcError becomes
// the response error.
type methodHandler func(ctx context.Context, params json.RawMessage) (any, *rpcError)

type request struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *rpcError        `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// toolsCallResult is the MCP content envelope around a tool result. Tool
// failures are reported in-band with IsError set.
type toolsCallResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolListEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// NewServer constructs a Server whose tools are served by backend.
// version is reported in the initialize handshake.
func NewServer(backend Backend, version string) *Server {
	s := &Server{backend: backend, version: version}
	s.methods = map[string]methodHandler{
		"initialize": s.initialize,
		"ping":       func(context.Context, json.RawMessage) (any, *rpcError) { return struct{}{}, nil },
		"tools/list": s.listTools,
		"tools/call": s.callTool,
	}
	addTools(s)
	return s
}

func (s *Server) registerTool(def toolDef) {
	s.tools = append(s.tools, def)
}

// Run serves until r reaches EOF or ctx is cancelled. It returns an error
// only for read or write failures.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if len(line) == 0 {
				continue
			}
			resp, reply := s.handle(ctx, line)
			if !reply {
				continue
			}
			if err := writeResponse(bw, resp); err != nil {
				return err
			}
		}
	}
}

// handle decodes and dispatches one line. reply is false for notifications.
func (s *Server) handle(ctx context.Context, line []byte) (resp response, reply bool) {
	resp.JSONRPC = "2.0"

	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		resp.Error = &rpcError{Code: codeParseError, Message: "Parse error"}
		return resp, true
	}
	if req.ID == nil {
		slog.Debug("mcp: notification", "method", req.Method)
		return resp, false
	}
	resp.ID = req.ID

	if req.Method == "" {
		resp.Error = &rpcError{Code: codeInvalidRequest, Message: "Invalid request"}
		return resp, true
	}
	method, ok := s.methods[req.Method]
	if !ok {
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "Method not found"}
		return resp, true
	}
	resp.Result, resp.Error = method(ctx, req.Params)
	return resp, true
}

func (s *Server) initialize(context.Context, json.RawMessage) (any, *rpcError) {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo":      map[string]any{"name": "repohealth", "version": s.version},
	}, nil
}

func (s *Server) listTools(context.Context, json.RawMessage) (any, *rpcError) {
	entries := make([]toolListEntry, 0, len(s.tools))
	for _, t := range s.tools {
		entries = append(entries, toolListEntry{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return map[string]any{"tools": entries}, nil
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (any, *rpcError) {
	var params toolsCallParams
	if err := json.Unmarshal(raw, &params); err != nil || params.Name == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid params"}
	}

	var tool *toolDef
	for i := range s.tools {
		if s.tools[i].Name == params.Name {
			tool = &s.tools[i]
			break
		}
	}
	if tool == nil {
		return toolError(fmt.Errorf("unknown tool: %s", params.Name)), nil
	}

	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	result, err := tool.Handler(ctx, args)
	if err != nil {
		slog.Debug("mcp: tool failed", "tool", tool.Name, "err", err)
		return toolError(err), nil
	}
	text, err := json.Marshal(result)
	if err != nil {
		return toolError(err), nil
	}
	return toolsCallResult{Content: []textContent{{Type: "text", Text: string(text)}}}, nil
}

func toolError(err error) toolsCallResult {
	return toolsCallResult{Content: []textContent{{Type: "text", Text: err.Error()}}, IsError: true}
}

// writeResponse writes resp as one line and flushes.
func writeResponse(bw *bufio.Writer, resp response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := bw.Write(data); err != nil {
		return err
	}
	return bw.Flush()
}
