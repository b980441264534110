package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/circuitchat/internal/api"
	"github.com/ziadkadry99/circuitchat/internal/circuit"
	"github.com/ziadkadry99/circuitchat/internal/circuitgen"
	"github.com/ziadkadry99/circuitchat/internal/history"
)

// handleGenerateCircuit generates a circuit and returns the JSON block
// followed by the explanation, in the same layout the model is asked for.
func (s *Server) handleGenerateCircuit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: prompt"), nil
	}

	res, err := s.svc.Generate(ctx, circuitgen.Request{Prompt: prompt})
	if err != nil {
		_, body := api.GenerateError(s.svc.Provider(), err)
		msg := body.Error
		if body.ParseErrorMessage != "" {
			msg += " " + body.ParseErrorMessage
		}
		if body.Details != "" {
			msg += "\n\n" + body.Details
		}
		return mcp.NewToolResultError(msg), nil
	}

	var sb strings.Builder
	sb.WriteString(circuitgen.JSONStartMarker + "\n")
	sb.Write(res.CircuitJSON)
	sb.WriteString("\n" + circuitgen.JSONEndMarker + "\n")
	sb.WriteString(circuitgen.ExplanationMarker + "\n")
	sb.WriteString(res.Explanation + "\n")
	if len(res.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range res.Warnings {
			sb.WriteString("- " + w + "\n")
		}
	}
	if res.GenerationID != "" {
		sb.WriteString(fmt.Sprintf("\nGeneration id: %s\n", res.GenerationID))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleAnalyzeCircuit returns the model's review of a circuit.
func (s *Server) handleAnalyzeCircuit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("circuit")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: circuit"), nil
	}

	out, err := s.svc.Analyze(ctx, raw)
	if err != nil {
		_, body := api.AnalyzeError(err)
		return mcp.NewToolResultError(body.Result), nil
	}
	return mcp.NewToolResultText(out), nil
}

// handleValidateCircuit checks a circuit document without calling a model.
func (s *Server) handleValidateCircuit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("circuit")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: circuit"), nil
	}

	compact, err := circuit.ValidatePasted([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid circuit: %v", err)), nil
	}
	report, err := circuit.InspectJSON(compact)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Valid, but the document could not be inspected: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Valid circuit: %d device(s), %d connector(s), %d subcircuit(s).\n",
		report.Devices, report.Connectors, report.Subcircuits))
	if len(report.DeviceKinds) > 0 {
		sb.WriteString("Device types: " + strings.Join(report.DeviceKinds, ", ") + "\n")
	}
	if len(report.Warnings) == 0 {
		sb.WriteString("No warnings.\n")
	} else {
		sb.WriteString("\nWarnings:\n")
		for _, w := range report.Warnings {
			sb.WriteString("- " + w + "\n")
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleListDeviceTypes renders the device catalog.
func (s *Server) handleListDeviceTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := circuit.Category(request.GetString("category", ""))

	var sb strings.Builder
	var current circuit.Category
	n := 0
	for _, d := range circuit.DeviceTypes() {
		if category != "" && d.Category != category {
			continue
		}
		if d.Category != current {
			current = d.Category
			sb.WriteString(fmt.Sprintf("\n## %s\n\n", current))
		}
		sb.WriteString(fmt.Sprintf("- **%s**", d.Name))
		if d.Inputs != "" || d.Outputs != "" {
			sb.WriteString(fmt.Sprintf(": %s -> %s", orNone(d.Inputs), orNone(d.Outputs)))
		}
		if d.Attributes != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", d.Attributes))
		}
		sb.WriteString("\n")
		n++
	}
	if n == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("No device types in category %q.", category)), nil
	}
	return mcp.NewToolResultText(strings.TrimPrefix(sb.String(), "\n")), nil
}

// handleGetGeneration returns one recorded generation attempt.
func (s *Server) handleGetGeneration(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	e, err := s.store.GetByID(ctx, id)
	if errors.Is(err, history.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("No generation with id %q.", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading generation: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Generation %s\n\n", e.ID))
	sb.WriteString(fmt.Sprintf("- **Prompt**: %s\n", e.Prompt))
	sb.WriteString(fmt.Sprintf("- **Status**: %s\n", e.Status))
	sb.WriteString(fmt.Sprintf("- **Model**: %s/%s\n", e.Provider, e.Model))
	sb.WriteString(fmt.Sprintf("- **Created**: %s\n", e.CreatedAt.Format("2006-01-02 15:04:05")))
	if e.Error != "" {
		sb.WriteString(fmt.Sprintf("- **Error**: %s\n", e.Error))
	}
	if len(e.CircuitJSON) > 0 {
		sb.WriteString("\n```json\n")
		sb.Write(e.CircuitJSON)
		sb.WriteString("\n```\n")
	}
	if e.Explanation != "" {
		sb.WriteString("\n" + e.Explanation + "\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleFindSimilarPrompts searches successful past prompts.
func (s *Server) handleFindSimilarPrompts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	matches, err := s.index.Similar(ctx, query, limit, true)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No similar prompts found. Generate some circuits first."), nil
	}

	var sb strings.Builder
	for i, m := range matches {
		sb.WriteString(fmt.Sprintf("%d. %s (id %s, similarity %.2f)\n", i+1, m.Prompt, m.ID, m.Similarity))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
