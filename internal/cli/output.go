package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/wtm/internal/model"
)

// Output formats accepted by --output.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// resolveFormat returns the effective output format. --json wins over
// --output.
func resolveFormat() (string, error) {
	if jsonOutput {
		return formatJSON, nil
	}
	switch outputFormat {
	case formatText, formatJSON, formatYAML:
		return outputFormat, nil
	case "":
		return formatText, nil
	default:
		return formatText, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid output format %q (valid: text, json, yaml)", outputFormat))
	}
}

// IsStructuredOutput reports whether output is JSON or YAML. Prompts and
// progress lines are suppressed in that case.
func IsStructuredOutput() bool {
	format, _ := resolveFormat()
	return format != formatText
}

// render writes v to the command's stdout in the selected format. text is
// called for the text format.
func render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	format, err := resolveFormat()
	if err != nil {
		return err
	}

	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	default:
		text(w)
	}
	return nil
}
