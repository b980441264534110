package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/circuitchat/internal/batch"
	"github.com/ziadkadry99/circuitchat/internal/circuit"
)

var validateCmd = &cobra.Command{
	Use:   "validate [pattern...]",
	Short: "Check digitaljs circuit files without calling a model",
	Long: `Validates circuit JSON files matching the given paths or glob patterns
(** is supported, e.g. "circuits/**/*.json"). Each file must parse, have a
"devices" object and a "connectors" array. Advisory warnings (unknown
device types, dangling connectors, undefined subcircuits) are reported
but do not fail validation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("json", false, "output reports as JSON")
	validateCmd.Flags().Bool("strict", false, "treat warnings as failures")
	rootCmd.AddCommand(validateCmd)
}

type validateResult struct {
	File   string          `json:"file"`
	Valid  bool            `json:"valid"`
	Error  string          `json:"error,omitempty"`
	Report *circuit.Report `json:"report,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	strict, _ := cmd.Flags().GetBool("strict")

	files, err := batch.ExpandPatterns(args)
	if err != nil {
		return err
	}

	var results []validateResult
	failed := 0
	for _, f := range files {
		r := validateFile(f)
		if !r.Valid || (strict && r.Report != nil && len(r.Report.Warnings) > 0) {
			failed++
		}
		results = append(results, r)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		fmt.Println(string(data))
	} else {
		for _, r := range results {
			if !r.Valid {
				fmt.Printf("FAIL  %s: %s\n", r.File, r.Error)
				continue
			}
			fmt.Printf("ok    %s (%d devices, %d connectors, %d subcircuits)\n",
				r.File, r.Report.Devices, r.Report.Connectors, r.Report.Subcircuits)
			for _, w := range r.Report.Warnings {
				fmt.Printf("      warning: %s\n", w)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(files))
	}
	return nil
}

func validateFile(path string) validateResult {
	res := validateResult{File: path}
	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	compact, err := circuit.ValidatePasted(data)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	report, err := circuit.InspectJSON(compact)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Valid = true
	res.Report = &report
	return res
}
