package mcp

import "github.com/mark3labs/mcp-go/mcp"

// generateCircuitTool defines the generate_circuit MCP tool.
var generateCircuitTool = mcp.NewTool("generate_circuit",
	mcp.WithDescription("Generate a digitaljs circuit JSON document and an explanation from a natural language description."),
	mcp.WithString("prompt",
		mcp.Required(),
		mcp.Description("Description of the circuit, e.g. \"a 4-bit ripple carry adder\""),
	),
)

// analyzeCircuitTool defines the analyze_circuit MCP tool.
var analyzeCircuitTool = mcp.NewTool("analyze_circuit",
	mcp.WithDescription("Ask the model to review a digitaljs circuit and suggest improvements or fixes."),
	mcp.WithString("circuit",
		mcp.Required(),
		mcp.Description("The circuit as a digitaljs JSON document"),
	),
)

// validateCircuitTool defines the validate_circuit MCP tool.
var validateCircuitTool = mcp.NewTool("validate_circuit",
	mcp.WithDescription("Check that a digitaljs circuit document is well formed and report devices, connectors and warnings."),
	mcp.WithString("circuit",
		mcp.Required(),
		mcp.Description("The circuit as a digitaljs JSON document"),
	),
)

// listDeviceTypesTool defines the list_device_types MCP tool.
var listDeviceTypesTool = mcp.NewTool("list_device_types",
	mcp.WithDescription("List the digitaljs device types with their ports and attributes."),
	mcp.WithString("category",
		mcp.Description("Only list one category"),
		mcp.Enum("logic-gates", "arithmetic-comparison", "multiplexers", "memory", "io", "bus", "fsm", "structure"),
	),
)

// getGenerationTool defines the get_generation MCP tool.
var getGenerationTool = mcp.NewTool("get_generation",
	mcp.WithDescription("Fetch a past generation attempt by id, including its circuit and explanation."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Generation id as returned by generate_circuit"),
	),
)

// findSimilarPromptsTool defines the find_similar_prompts MCP tool.
var findSimilarPromptsTool = mcp.NewTool("find_similar_prompts",
	mcp.WithDescription("Search past successful generations for prompts similar to a description."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language description"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)
