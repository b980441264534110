package circuit

import "sort"

// Category groups device types the way the digitaljs reference does.
type Category string

const (
	CategoryGate       Category = "logic-gates"
	CategoryArithmetic Category = "arithmetic-comparison"
	CategoryMux        Category = "multiplexers"
	CategoryMemory     Category = "memory"
	CategoryIO         Category = "io"
	CategoryBus        Category = "bus"
	CategoryFSM        Category = "fsm"
	CategoryStructure  Category = "structure"
)

// DeviceType describes one digitaljs device type.
type DeviceType struct {
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	Attributes string   `json:"attributes,omitempty"`
	Inputs     string   `json:"inputs,omitempty"`
	Outputs    string   `json:"outputs,omitempty"`
}

func family(names []string, cat Category, attrs, inputs, outputs string) []DeviceType {
	out := make([]DeviceType, 0, len(names))
	for _, n := range names {
		out = append(out, DeviceType{Name: n, Category: cat, Attributes: attrs, Inputs: inputs, Outputs: outputs})
	}
	return out
}

var catalog = func() map[string]DeviceType {
	var all []DeviceType
	all = append(all, family([]string{"Not", "Repeater"}, CategoryGate,
		"bits", "in (bits)", "out (bits)")...)
	all = append(all, family([]string{"And", "Nand", "Or", "Nor", "Xor", "Xnor"}, CategoryGate,
		"bits, inputs (default 2)", "in1 ... inN (bits)", "out (bits)")...)
	all = append(all, family([]string{"AndReduce", "NandReduce", "OrReduce", "NorReduce", "XorReduce", "XnorReduce"}, CategoryGate,
		"bits", "in (bits)", "out (1)")...)
	all = append(all, family([]string{"ShiftLeft", "ShiftRight"}, CategoryArithmetic,
		"bits.in1, bits.in2, bits.out, signed.in1, signed.in2, signed.out, fillx", "in1, in2", "out (bits.out)")...)
	all = append(all, family([]string{"Eq", "Ne", "Lt", "Le", "Gt", "Ge"}, CategoryArithmetic,
		"bits.in1, bits.in2, signed.in1, signed.in2", "in1, in2", "out (1)")...)
	all = append(all, family([]string{"Constant"}, CategoryArithmetic,
		"constant (binary string)", "", "out (constant.length)")...)
	all = append(all, family([]string{"Negation", "UnaryPlus"}, CategoryArithmetic,
		"bits.in, bits.out, signed", "in (bits.in)", "out (bits.out)")...)
	all = append(all, family([]string{"Addition", "Subtraction", "Multiplication", "Division", "Modulo", "Power"}, CategoryArithmetic,
		"bits.in1, bits.in2, bits.out, signed.in1, signed.in2", "in1, in2", "out (bits.out)")...)
	all = append(all, family([]string{"Mux", "Mux1Hot", "MuxSparse"}, CategoryMux,
		"bits.in, bits.sel", "in0 ... inN, sel", "out (bits.in)")...)
	all = append(all, family([]string{"Dff"}, CategoryMemory,
		"bits, polarity.*, enable_srst, initial, arst_value, srst_value, no_data", "in, clk, arst, srst, en, set, clr, ain, aload", "out (bits)")...)
	all = append(all, family([]string{"Memory"}, CategoryMemory,
		"bits, abits, words, offset, rdports, wrports, memdata", "rdKaddr, rdKen, rdKclk, wrKaddr, wrKdata, wrKen, wrKclk", "rdKdata (bits)")...)
	all = append(all, family([]string{"Clock", "Button"}, CategoryIO, "", "", "out (1)")...)
	all = append(all, family([]string{"Lamp"}, CategoryIO, "", "in (1)", "")...)
	all = append(all, family([]string{"NumEntry"}, CategoryIO, "bits, numbase", "", "out (bits)")...)
	all = append(all, family([]string{"NumDisplay"}, CategoryIO, "bits, numbase", "in (bits)", "")...)
	all = append(all, family([]string{"Input"}, CategoryIO, "bits", "", "out (bits)")...)
	all = append(all, family([]string{"Output"}, CategoryIO, "bits", "in (bits)", "")...)
	all = append(all, family([]string{"Display7"}, CategoryIO, "", "bits (8)", "")...)
	all = append(all, family([]string{"BusGroup"}, CategoryBus, "groups", "in0 ... inN", "out")...)
	all = append(all, family([]string{"BusUngroup"}, CategoryBus, "groups", "in", "out0 ... outN")...)
	all = append(all, family([]string{"BusSlice"}, CategoryBus, "slice.first, slice.count, slice.total", "in (slice.total)", "out (slice.count)")...)
	all = append(all, family([]string{"ZeroExtend", "SignExtend"}, CategoryBus, "extend.input, extend.output", "in", "out")...)
	all = append(all, family([]string{"FSM"}, CategoryFSM,
		"bits.in, bits.out, states, init_state, current_state, trans_table", "clk, arst, in", "out (bits.out)")...)
	all = append(all, DeviceType{Name: "Subcircuit", Category: CategoryStructure, Attributes: "celltype",
		Inputs: "one per Input device of the definition", Outputs: "one per Output device of the definition"})

	m := make(map[string]DeviceType, len(all))
	for _, d := range all {
		m[d.Name] = d
	}
	return m
}()

// LookupDeviceType returns the catalog entry for name.
func LookupDeviceType(name string) (DeviceType, bool) {
	d, ok := catalog[name]
	return d, ok
}

// DeviceTypes returns every known device type, sorted by category then name.
func DeviceTypes() []DeviceType {
	out := make([]DeviceType, 0, len(catalog))
	for _, d := range catalog {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}
