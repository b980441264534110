// Package circuit models the digitaljs circuit description the service
// passes between the LLM and the browser-side simulator.
//
// The simulator owns the semantics of these documents. This package only
// decodes enough of them to validate pasted input and to report on what an
// LLM produced; circuits travel through the service as json.RawMessage.
package circuit

import "encoding/json"

// Circuit is a top-level digitaljs document.
type Circuit struct {
	Devices     map[string]Device     `json:"devices"`
	Connectors  []Connector           `json:"connectors"`
	Subcircuits map[string]Subcircuit `json:"subcircuits,omitempty"`
}

// Subcircuit is a named nested graph instantiated by Subcircuit devices.
// Subcircuit definitions may not declare subcircuits of their own.
type Subcircuit struct {
	Devices     map[string]Device     `json:"devices"`
	Connectors  []Connector           `json:"connectors"`
	Subcircuits map[string]Subcircuit `json:"subcircuits,omitempty"`
}

// Device is a node in the circuit graph. Bits is kept raw because some
// device types use a number and others an object (bits.in1, bits.out...).
type Device struct {
	Type     string          `json:"type"`
	Label    string          `json:"label,omitempty"`
	Net      string          `json:"net,omitempty"`
	Order    *int            `json:"order,omitempty"`
	Bits     json.RawMessage `json:"bits,omitempty"`
	Celltype string          `json:"celltype,omitempty"`
}

// Connector is a directed wire from an output port to an input port.
type Connector struct {
	From PortRef `json:"from"`
	To   PortRef `json:"to"`
	Name string  `json:"name,omitempty"`
}

// PortRef names one port on one device.
type PortRef struct {
	ID   string `json:"id"`
	Port string `json:"port"`
}

// Decode parses raw circuit JSON into a Circuit.
func Decode(raw []byte) (*Circuit, error) {
	var c Circuit
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
