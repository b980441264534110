package circuitgen

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/ziadkadry99/circuitchat/internal/circuit"
)

// AnalysisPreamble is prepended to circuit JSON for analysis requests.
const AnalysisPreamble = "Analyze the following logic circuit JSON and suggest improvements or fixes if any issues are identified:\n\n"

// NoSuggestions is returned to the user when analysis produced no text.
const NoSuggestions = "No suggestions returned."

const generationTemplate = `You are an expert in digital logic circuits and the digitaljs library format. Generate a digitaljs circuit JSON object based on the following user request.

**Instructions:**
1.  Analyze the user's request carefully.
2.  Create the corresponding circuit definition in the digitaljs JSON format.
3.  The JSON object **MUST** have a top-level structure containing 'devices' (object) and 'connectors' (array). It **MAY** also contain 'subcircuits' (object) if needed.
4.  **Devices Object:** Keys are unique device IDs (e.g., "dev0", "dev1"). Values are objects with properties like 'type' (string, e.g., 'Button', 'Lamp', 'And', 'Or', 'Xor', 'Not', 'Input', 'Output', 'Subcircuit'), 'label' (string), 'net' (string, optional), 'order' (number, optional), 'bits' (number, usually 1), 'celltype' (string, required for 'Subcircuit' type).
5.  **Connectors Array:** Each element is an object defining a wire connection. It **MUST** have 'to' (object with 'id' and 'port' strings) and 'from' (object with 'id' and 'port' strings). It **MAY** have a 'name' (string).
6.  **Subcircuits Object (Optional):** Keys are subcircuit names (e.g., "halfadder"). Values are objects defining the subcircuit structure, containing their own 'devices' and 'connectors' following the same rules.
7.  **Output Format:** Your response **MUST** strictly follow this structure:
    *   First, provide the raw digitaljs JSON object enclosed in triple backticks with the language specifier {{.Tick}}json{{.Tick}}. Start the block immediately with {{.Start}}. Do not add any text before this block.
    *   After the JSON block, add a separator line exactly like this: 
{{.Explanation}}

    *   Finally, provide a brief explanation of the generated circuit or any relevant notes. Do not add any text after the explanation.

**Device Type Reference (type: inputs -> outputs; attributes):**
{{range .Devices}}- {{.Name}}: {{if .Inputs}}{{.Inputs}}{{else}}none{{end}} -> {{if .Outputs}}{{.Outputs}}{{else}}none{{end}}{{if .Attributes}}; {{.Attributes}}{{end}}
{{end}}
**Example of a Valid Full Adder JSON Structure:**

{{.Start}}
{
  "devices": {
    "dev0": { "type": "Button", "label": "a", "net": "a", "order": 0, "bits": 1 },
    "dev1": { "type": "Button", "label": "b", "net": "b", "order": 1, "bits": 1 },
    "dev2": { "type": "Button", "label": "cin", "net": "cin", "order": 2, "bits": 1 },
    "dev3": { "type": "Lamp", "label": "s", "net": "s", "order": 3, "bits": 1 },
    "dev4": { "type": "Lamp", "label": "cout", "net": "cout", "order": 4, "bits": 1 },
    "dev5": { "type": "Or", "label": "or1", "bits": 1 },
    "dev6": { "type": "Subcircuit", "label": "ha1", "celltype": "halfadder" },
    "dev7": { "type": "Subcircuit", "label": "ha2", "celltype": "halfadder" }
  },
  "connectors": [
    { "to": { "id": "dev6", "port": "a" }, "from": { "id": "dev0", "port": "out" }, "name": "a" },
    { "to": { "id": "dev6", "port": "b" }, "from": { "id": "dev1", "port": "out" }, "name": "b" },
    { "to": { "id": "dev7", "port": "b" }, "from": { "id": "dev2", "port": "out" }, "name": "cin" },
    { "to": { "id": "dev3", "port": "in" }, "from": { "id": "dev7", "port": "o" }, "name": "s" },
    { "to": { "id": "dev4", "port": "in" }, "from": { "id": "dev5", "port": "out" }, "name": "cout" },
    { "to": { "id": "dev5", "port": "in1" }, "from": { "id": "dev6", "port": "c" }, "name": "c1" },
    { "to": { "id": "dev5", "port": "in2" }, "from": { "id": "dev7", "port": "c" }, "name": "c2" },
    { "to": { "id": "dev7", "port": "a" }, "from": { "id": "dev6", "port": "o" }, "name": "t" }
  ],
  "subcircuits": {
    "halfadder": {
      "devices": {
        "dev0": { "type": "Input", "label": "a", "net": "a", "order": 0, "bits": 1 },
        "dev1": { "type": "Input", "label": "b", "net": "b", "order": 1, "bits": 1 },
        "dev2": { "type": "Output", "label": "o", "net": "o", "order": 2, "bits": 1 },
        "dev3": { "type": "Output", "label": "c", "net": "c", "order": 3, "bits": 1 },
        "dev4": { "type": "And", "label": "and1", "bits": 1 },
        "dev5": { "type": "Xor", "label": "xor1", "bits": 1 }
      },
      "connectors": [
        { "to": { "id": "dev4", "port": "in1" }, "from": { "id": "dev0", "port": "out" }, "name": "a_to_and" },
        { "to": { "id": "dev5", "port": "in1" }, "from": { "id": "dev0", "port": "out" }, "name": "a_to_xor" },
        { "to": { "id": "dev4", "port": "in2" }, "from": { "id": "dev1", "port": "out" }, "name": "b_to_and" },
        { "to": { "id": "dev5", "port": "in2" }, "from": { "id": "dev1", "port": "out" }, "name": "b_to_xor" },
        { "to": { "id": "dev2", "port": "in" }, "from": { "id": "dev5", "port": "out" }, "name": "o" },
        { "to": { "id": "dev3", "port": "in" }, "from": { "id": "dev4", "port": "out" }, "name": "c" }
      ]
    }
  }
}
{{.End}}
{{.Explanation}}
This is a full adder circuit constructed using two half adder subcircuits...

**User Request:** "{{.Request}}"

**Generate the response now:**`

var (
	tmplOnce sync.Once
	tmpl     *template.Template
)

func promptTemplate() *template.Template {
	tmplOnce.Do(func() {
		tmpl = template.Must(template.New("generate").Parse(generationTemplate))
	})
	return tmpl
}

// GenerationPrompt embeds the user's request in the circuit generation
// instructions.
func GenerationPrompt(request string) string {
	var sb strings.Builder
	err := promptTemplate().Execute(&sb, map[string]any{
		"Tick":        "`",
		"Start":       JSONStartMarker,
		"End":         JSONEndMarker,
		"Explanation": ExplanationMarker,
		"Devices":     circuit.DeviceTypes(),
		"Request":     request,
	})
	if err != nil {
		// The template and its data are fixed; only a programming error lands here.
		panic(fmt.Sprintf("circuitgen: executing prompt template: %v", err))
	}
	return sb.String()
}

// AnalysisPrompt wraps circuit JSON in the analysis instruction.
func AnalysisPrompt(circuitJSON string) string {
	return AnalysisPreamble + circuitJSON
}
