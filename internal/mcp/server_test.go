package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/circuitchat/internal/circuit"
	"github.com/ziadkadry99/circuitchat/internal/circuitgen"
	"github.com/ziadkadry99/circuitchat/internal/db"
	"github.com/ziadkadry99/circuitchat/internal/history"
	"github.com/ziadkadry99/circuitchat/internal/llm"
)

// mockService implements api.Service for testing.
type mockService struct {
	result   *circuitgen.Result
	err      error
	analysis string
}

func (m *mockService) Generate(_ context.Context, req circuitgen.Request) (*circuitgen.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockService) Analyze(context.Context, string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.analysis, nil
}

func (m *mockService) Provider() string { return "google" }

// mockEmbedder maps every text to the same unit vector.
type mockEmbedder struct{}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1, 0, 0}
	}
	return result, nil
}
func (m *mockEmbedder) Dimensions() int { return 3 }
func (m *mockEmbedder) Name() string    { return "mock" }

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var text strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			text.WriteString(tc.Text)
		}
	}
	return result, text.String()
}

func TestToolDefinitions(t *testing.T) {
	// Verify tool names and required properties.
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"generate_circuit", generateCircuitTool, "generate_circuit"},
		{"analyze_circuit", analyzeCircuitTool, "analyze_circuit"},
		{"validate_circuit", validateCircuitTool, "validate_circuit"},
		{"list_device_types", listDeviceTypesTool, "list_device_types"},
		{"get_generation", getGenerationTool, "get_generation"},
		{"find_similar_prompts", findSimilarPromptsTool, "find_similar_prompts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := NewServer(&mockService{}, Deps{})
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.store != nil || srv.index != nil {
		t.Error("history backends should be unset")
	}
}

func TestHandleGenerateCircuit(t *testing.T) {
	svc := &mockService{result: &circuitgen.Result{
		CircuitJSON:  json.RawMessage(`{"devices":{},"connectors":[]}`),
		Explanation:  "An empty circuit.",
		GenerationID: "gen-42",
		Warnings:     []string{"no devices"},
	}}
	srv := NewServer(svc, Deps{})

	t.Run("success", func(t *testing.T) {
		result, text := call(t, srv.handleGenerateCircuit, map[string]any{"prompt": "nothing"})
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", text)
		}
		parsed, err := circuitgen.Parse(text)
		if err != nil {
			t.Fatalf("output does not round-trip through Parse: %v\n%s", err, text)
		}
		if string(parsed.CircuitJSON) != `{"devices":{},"connectors":[]}` {
			t.Errorf("circuit = %s", parsed.CircuitJSON)
		}
		if !strings.Contains(text, "gen-42") || !strings.Contains(text, "no devices") {
			t.Errorf("missing id or warnings:\n%s", text)
		}
	})

	t.Run("missing prompt", func(t *testing.T) {
		result, _ := call(t, srv.handleGenerateCircuit, map[string]any{})
		if !result.IsError {
			t.Error("expected error for missing prompt")
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		failing := NewServer(&mockService{err: &llm.StatusError{Provider: "google", StatusCode: 503, Body: "overloaded"}}, Deps{})
		result, text := call(t, failing.handleGenerateCircuit, map[string]any{"prompt": "adder"})
		if !result.IsError {
			t.Fatal("expected tool error")
		}
		if !strings.Contains(text, "Gemini API request failed with status 503.") || !strings.Contains(text, "overloaded") {
			t.Errorf("error text = %q", text)
		}
	})
}

func TestHandleAnalyzeCircuit(t *testing.T) {
	srv := NewServer(&mockService{analysis: "Add a carry output."}, Deps{})
	result, text := call(t, srv.handleAnalyzeCircuit, map[string]any{"circuit": `{"devices":{},"connectors":[]}`})
	if result.IsError || text != "Add a carry output." {
		t.Errorf("analysis = %q (error=%v)", text, result.IsError)
	}

	failing := NewServer(&mockService{err: llm.ErrMissingAPIKey}, Deps{})
	result, text = call(t, failing.handleAnalyzeCircuit, map[string]any{"circuit": "{}"})
	if !result.IsError || text != "API key not configured." {
		t.Errorf("missing key result = %q (error=%v)", text, result.IsError)
	}
}

func TestHandleValidateCircuit(t *testing.T) {
	srv := NewServer(&mockService{}, Deps{})

	result, text := call(t, srv.handleValidateCircuit, map[string]any{"circuit": string(circuit.FullAdder())})
	if result.IsError {
		t.Fatalf("full adder rejected: %s", text)
	}
	if !strings.Contains(text, "8 device(s), 8 connector(s), 1 subcircuit(s)") || !strings.Contains(text, "No warnings.") {
		t.Errorf("report = %q", text)
	}

	result, text = call(t, srv.handleValidateCircuit, map[string]any{"circuit": `{"devices":[]}`})
	if !result.IsError || !strings.Contains(text, "Invalid circuit") {
		t.Errorf("bad circuit result = %q", text)
	}
}

func TestHandleListDeviceTypes(t *testing.T) {
	srv := NewServer(&mockService{}, Deps{})

	_, all := call(t, srv.handleListDeviceTypes, map[string]any{})
	if !strings.Contains(all, "**And**") || !strings.Contains(all, "**Subcircuit**") {
		t.Errorf("catalog listing incomplete:\n%s", all)
	}

	_, gates := call(t, srv.handleListDeviceTypes, map[string]any{"category": "logic-gates"})
	if !strings.Contains(gates, "**Xor**") || strings.Contains(gates, "**Dff**") {
		t.Errorf("category filter not applied:\n%s", gates)
	}

	result, _ := call(t, srv.handleListDeviceTypes, map[string]any{"category": "analog"})
	if !result.IsError {
		t.Error("expected error for unknown category")
	}
}

func TestHistoryTools(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()
	store := history.NewStore(database)
	index, err := history.NewIndex(&mockEmbedder{})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	ctx := context.Background()
	entry := history.Entry{
		Prompt:      "half adder",
		Status:      history.StatusOK,
		CircuitJSON: json.RawMessage(`{"devices":{},"connectors":[]}`),
		Explanation: "Sum and carry.",
		Provider:    "google",
		Model:       "gemini-1.5-flash",
	}
	id, err := store.Log(ctx, entry)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	entry.ID = id
	if err := index.Add(ctx, entry); err != nil {
		t.Fatalf("Add: %v", err)
	}

	srv := NewServer(&mockService{}, Deps{Store: store, Index: index})

	result, text := call(t, srv.handleGetGeneration, map[string]any{"id": id})
	if result.IsError || !strings.Contains(text, "half adder") || !strings.Contains(text, "Sum and carry.") {
		t.Errorf("get_generation = %q", text)
	}

	result, _ = call(t, srv.handleGetGeneration, map[string]any{"id": "missing"})
	if !result.IsError {
		t.Error("expected error for unknown id")
	}

	result, text = call(t, srv.handleFindSimilarPrompts, map[string]any{"query": "adder", "limit": 3})
	if result.IsError || !strings.Contains(text, "half adder") || !strings.Contains(text, id) {
		t.Errorf("find_similar_prompts = %q", text)
	}
}
