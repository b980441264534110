package circuit

import (
	"fmt"
	"sort"
)

// Report summarizes a circuit. Warnings are advisory: the simulator is the
// authority on whether a circuit loads.
type Report struct {
	Devices     int      `json:"devices"`
	Connectors  int      `json:"connectors"`
	Subcircuits int      `json:"subcircuits"`
	DeviceKinds []string `json:"device_kinds"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Inspect walks a decoded circuit and reports on its contents.
func Inspect(c *Circuit) Report {
	r := Report{
		Devices:     len(c.Devices),
		Connectors:  len(c.Connectors),
		Subcircuits: len(c.Subcircuits),
	}

	kinds := map[string]bool{}
	r.Warnings = append(r.Warnings, checkGraph("", c.Devices, c.Connectors, c.Subcircuits, kinds)...)

	for _, name := range sortedKeys(c.Subcircuits) {
		sub := c.Subcircuits[name]
		scope := fmt.Sprintf("subcircuit %q: ", name)
		if len(sub.Subcircuits) > 0 {
			r.Warnings = append(r.Warnings, scope+"nested subcircuit definitions are not supported")
		}
		r.Warnings = append(r.Warnings, checkGraph(scope, sub.Devices, sub.Connectors, c.Subcircuits, kinds)...)
	}

	for k := range kinds {
		r.DeviceKinds = append(r.DeviceKinds, k)
	}
	sort.Strings(r.DeviceKinds)
	return r
}

// InspectJSON decodes raw and inspects it.
func InspectJSON(raw []byte) (Report, error) {
	c, err := Decode(raw)
	if err != nil {
		return Report{}, err
	}
	return Inspect(c), nil
}

func checkGraph(scope string, devices map[string]Device, connectors []Connector, defs map[string]Subcircuit, kinds map[string]bool) []string {
	var warnings []string

	for _, id := range sortedKeys(devices) {
		d := devices[id]
		switch {
		case d.Type == "":
			warnings = append(warnings, fmt.Sprintf("%sdevice %q has no type", scope, id))
			continue
		case d.Type == "Subcircuit":
			if d.Celltype == "" {
				warnings = append(warnings, fmt.Sprintf("%sdevice %q is a Subcircuit without celltype", scope, id))
			} else if _, ok := defs[d.Celltype]; !ok {
				warnings = append(warnings, fmt.Sprintf("%sdevice %q references undefined subcircuit %q", scope, id, d.Celltype))
			}
		default:
			if _, ok := LookupDeviceType(d.Type); !ok {
				warnings = append(warnings, fmt.Sprintf("%sdevice %q has unknown type %q", scope, id, d.Type))
			}
		}
		kinds[d.Type] = true
	}

	for i, conn := range connectors {
		if _, ok := devices[conn.From.ID]; !ok {
			warnings = append(warnings, fmt.Sprintf("%sconnector %d comes from unknown device %q", scope, i, conn.From.ID))
		}
		if _, ok := devices[conn.To.ID]; !ok {
			warnings = append(warnings, fmt.Sprintf("%sconnector %d goes to unknown device %q", scope, i, conn.To.ID))
		}
		if conn.From.Port == "" || conn.To.Port == "" {
			warnings = append(warnings, fmt.Sprintf("%sconnector %d is missing a port name", scope, i))
		}
	}
	return warnings
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
