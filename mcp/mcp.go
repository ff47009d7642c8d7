// Package mcp serves a frmr.ToolService over the Model Context Protocol
// stdio transport: newline-delimited JSON-RPC 2.0 messages.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/tools"
)

// JSONRPCVersion is the JSON-RPC version spoken by the server.
const JSONRPCVersion = "2.0"

// ProtocolVersion is the protocol revision offered when the client does
// not request one.
const ProtocolVersion = "2024-11-05"

// maxMessageSize bounds a single inbound message.
const maxMessageSize = 16 << 20

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is an inbound JSON-RPC request or notification. Notifications
// carry no ID.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outbound JSON-RPC response. Exactly one of Result and
// Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is a JSON-RPC error object.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is the result of tools/call. Tool failures are reported
// in-band with IsError set rather than as JSON-RPC errors.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Server answers protocol requests from a tool service.
type Server struct {
	Tools   frmr.ToolService
	Name    string
	Version string
	Logger  *slog.Logger
}

// NewServer returns a server for svc.
func NewServer(svc frmr.ToolService, name, version string) *Server {
	return &Server{
		Tools:   svc,
		Name:    name,
		Version: version,
		Logger:  slog.New(slog.DiscardHandler),
	}
}

// Serve reads requests from r and writes responses to w until r is
// exhausted or ctx is cancelled. Requests are answered in arrival order.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	// The reader may stay blocked after ctx is done; it exits with r.
	go func() {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
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
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("read request: %w", err)
			}
			return nil
		case line := <-lines:
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(line) == 0 {
				continue
			}
			if resp := s.Handle(ctx, line); resp != nil {
				if err := s.write(w, resp); err != nil {
					return err
				}
			}
		}
	}
}

// Handle answers one raw message. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, msg []byte) *Response {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return errorResponse(nil, CodeParseError, "Parse error")
	}
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "Invalid request")
	}

	begin := time.Now()
	result, rpcErr := s.dispatch(ctx, &req)
	s.Logger.Debug("request",
		"method", req.Method,
		"duration", time.Since(begin),
	)

	if req.ID == nil {
		return nil
	}
	if rpcErr != nil {
		return &Response{JSONRPC: JSONRPCVersion, ID: req.ID, Error: rpcErr}
	}
	return &Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *ResponseError) {
	switch req.Method {
	case "initialize":
		return s.initialize(req.Params), nil
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return s.listTools(), nil
	case "tools/call":
		return s.callTool(ctx, req.Params)
	}
	if isNotification(req.Method) {
		return nil, nil
	}
	return nil, &ResponseError{Code: CodeMethodNotFound, Message: fmt.Sprintf("Method not found: %s", req.Method)}
}

func (s *Server) initialize(params json.RawMessage) any {
	var p struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	_ = json.Unmarshal(params, &p)

	version := p.ProtocolVersion
	if version == "" {
		version = ProtocolVersion
	}
	return map[string]any{
		"protocolVersion": version,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    s.Name,
			"version": s.Version,
		},
	}
}

type toolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

func (s *Server) listTools() any {
	list := s.Tools.Tools()
	infos := make([]toolInfo, len(list))
	for i, t := range list {
		desc := t.Description
		if t.Category != "" {
			desc = fmt.Sprintf("%s [Category: %s]", desc, t.Category)
		}
		infos[i] = toolInfo{Name: t.Name, Description: desc, InputSchema: t.InputSchema}
	}
	return map[string]any{"tools": infos}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, *ResponseError) {
	var p struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.Name == "" {
		return nil, &ResponseError{Code: CodeInvalidParams, Message: "Invalid params: tool name is required"}
	}

	res, err := s.Tools.CallTool(ctx, p.Name, p.Arguments)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, &ResponseError{Code: CodeInternalError, Message: err.Error()}
		}
		s.Logger.Warn("tool failed", "tool", p.Name, "code", frmr.ErrorCode(err), "error", frmr.ErrorMessage(err))
		return textResult(tools.ErrorResult(err), true)
	}
	return textResult(res, false)
}

func textResult(v any, isError bool) (any, *ResponseError) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, &ResponseError{Code: CodeInternalError, Message: fmt.Sprintf("encode result: %v", err)}
	}
	return &CallToolResult{Content: []Content{{Type: "text", Text: string(buf)}}, IsError: isError}, nil
}

func (s *Server) write(w io.Writer, resp *Response) error {
	buf, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	buf = append(buf, '\n')
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func errorResponse(id json.RawMessage, code int, msg string) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: &ResponseError{Code: code, Message: msg}}
}

// isNotification reports whether method is a client notification that
// needs no handling.
func isNotification(method string) bool {
	return strings.HasPrefix(method, "notifications/")
}
