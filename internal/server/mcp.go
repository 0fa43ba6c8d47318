package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"webflowcms/internal/engine"
	"webflowcms/internal/plugin"
	"webflowcms/internal/types"
)

// version is reported to MCP clients; overridden at build time via -ldflags.
var version = "dev"

// MCPServer implements a JSON-RPC based MCP (Model Context Protocol) server
// that exposes flows and the Webflow CMS operations as tools.
type MCPServer struct {
	engine  *engine.Engine
	flows   map[string]*types.FlowDef
	secrets map[string]string
	log     *zap.SugaredLogger
}

// NewMCPServer creates a new MCP server.
func NewMCPServer(eng *engine.Engine, flows map[string]*types.FlowDef, secrets map[string]string, log *zap.SugaredLogger) *MCPServer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MCPServer{engine: eng, flows: flows, secrets: secrets, log: log}
}

// connectorToolPrefix namespaces connector actions, e.g. webflow_item_getAll.
const connectorToolPrefix = "webflow_"

// JSON-RPC types
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   any    `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MCP protocol types
type mcpInitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      mcpServerInfo  `json:"serverInfo"`
}

type mcpServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type mcpTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

type mcpToolsResult struct {
	Tools []mcpTool `json:"tools"`
}

type mcpCallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type mcpCallToolResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ServeStdio runs the MCP server on stdin/stdout.
func (s *MCPServer) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited JSON-RPC requests from r until EOF.
func (s *MCPServer) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	decoder := json.NewDecoder(r)
	encoder := json.NewEncoder(w)

	for {
		var req jsonRPCRequest
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("decoding request: %w", err)
		}

		resp := s.handleRequest(ctx, req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				return fmt.Errorf("encoding response: %w", err)
			}
		}
	}
}

func (s *MCPServer) handleRequest(ctx context.Context, req jsonRPCRequest) *jsonRPCResponse {
	switch req.Method {
	case "initialize":
		return &jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpInitializeResult{
				ProtocolVersion: "2024-11-05",
				Capabilities: map[string]any{
					"tools": map[string]any{},
				},
				ServerInfo: mcpServerInfo{
					Name:    "webflowcms",
					Version: version,
				},
			},
		}

	case "notifications/initialized":
		// No response needed for notifications.
		return nil

	case "tools/list":
		return &jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  s.listTools(),
		}

	case "tools/call":
		var params mcpCallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return &jsonRPCResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   jsonRPCError{Code: -32602, Message: "invalid params: " + err.Error()},
			}
		}
		s.log.Debugw("mcp tool call", "tool", params.Name)
		result, isError := s.callTool(ctx, params)
		return &jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpCallToolResult{
				Content: []mcpContent{{Type: "text", Text: result}},
				IsError: isError,
			},
		}

	default:
		return &jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   jsonRPCError{Code: -32601, Message: "method not found: " + req.Method},
		}
	}
}

func (s *MCPServer) listTools() mcpToolsResult {
	tools := make([]mcpTool, 0, len(s.flows))

	if s.engine.Registry.Has("webflow") {
		entries, _ := s.engine.Registry.Catalog("webflow")
		for _, e := range entries {
			tools = append(tools, mcpTool{
				Name:        actionToolName(e.Action.Name),
				Description: e.Action.Description,
				InputSchema: actionInputSchema(e.Action),
			})
		}
	}

	names := make([]string, 0, len(s.flows))
	for name := range s.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		flow := s.flows[name]
		tools = append(tools, mcpTool{
			Name:        flow.Name,
			Description: flow.Description,
			InputSchema: s.buildInputSchema(flow),
		})
	}
	return mcpToolsResult{Tools: tools}
}

func actionToolName(action string) string {
	return connectorToolPrefix + strings.ReplaceAll(action, ".", "_")
}

// jsonSchemaType maps connector field types to JSON Schema; "any" has none.
func jsonSchemaType(t string) string {
	switch t {
	case "string", "boolean", "number", "integer", "object", "array":
		return t
	default:
		return ""
	}
}

func actionInputSchema(action plugin.ActionDef) map[string]any {
	properties := make(map[string]any, len(action.Input))
	for name, field := range action.Input {
		prop := map[string]any{}
		if t := jsonSchemaType(field.Type); t != "" {
			prop["type"] = t
		}
		if field.Description != "" {
			prop["description"] = field.Description
		}
		properties[name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if required := action.RequiredInputs(); len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (s *MCPServer) buildInputSchema(flow *types.FlowDef) map[string]any {
	schema := map[string]any{
		"type": "object",
	}

	if flow.Input == nil || len(flow.Input.Properties) == 0 {
		return schema
	}

	properties := make(map[string]any)
	var required []string

	for name, field := range flow.Input.Properties {
		prop := map[string]any{}
		if t := jsonSchemaType(field.Type); t != "" {
			prop["type"] = t
		}
		if field.Description != "" {
			prop["description"] = field.Description
		}
		properties[name] = prop
		if field.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	schema["properties"] = properties
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func (s *MCPServer) callTool(ctx context.Context, params mcpCallToolParams) (string, bool) {
	if action, ok := strings.CutPrefix(params.Name, connectorToolPrefix); ok {
		if _, isFlow := s.flows[params.Name]; !isFlow {
			return s.callAction(ctx, action, params.Arguments)
		}
	}

	flow, ok := s.flows[params.Name]
	if !ok {
		return fmt.Sprintf("tool %q not found", params.Name), true
	}

	result, err := s.engine.RunWithSecrets(ctx, flow, params.Arguments, s.secrets)
	if err != nil {
		return fmt.Sprintf("error: %v", err), true
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("error marshaling result: %v", err), true
	}

	return string(resultJSON), result.Status == types.StatusFailed
}

// callAction runs one webflow connector action. Tool names use "_" where
// actions use ".", and only the first separator is significant.
func (s *MCPServer) callAction(ctx context.Context, tool string, args map[string]any) (string, bool) {
	conn, ok := s.engine.Registry.Get("webflow")
	if !ok {
		return "webflow connector is not registered", true
	}
	resource, operation, _ := strings.Cut(tool, "_")
	action := resource + "." + operation
	if _, found := plugin.FindAction(conn, action); !found {
		return fmt.Sprintf("tool %q not found", connectorToolPrefix+tool), true
	}
	if args == nil {
		args = map[string]any{}
	}

	res, err := conn.Execute(ctx, action, args)
	if err != nil {
		return fmt.Sprintf("error: %v", err), true
	}

	out, err := json.MarshalIndent(res.Output, "", "  ")
	if err != nil {
		return fmt.Sprintf("error marshaling result: %v", err), true
	}
	return string(out), res.Status == types.StatusFailed
}
