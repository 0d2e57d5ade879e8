package shared

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	apperrors "github.com/ariel-frischer/agentpipe/internal/errors"
	"gopkg.in/yaml.v3"
)

// ValidateFormat rejects --format values other than table, json and yaml.
func ValidateFormat(format string) error {
	if slices.Contains(Formats, format) {
		return nil
	}
	return apperrors.InvalidFormat(format, Formats)
}

// WriteStructured encodes v as json or yaml.
func WriteStructured(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported structured format %q", format)
	}
}

// ReadInput returns the text given as arguments, or stdin when the only
// argument is "-".
func ReadInput(args []string, stdin io.Reader, usage string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", apperrors.MissingInput(usage)
		}
		return text, nil
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", apperrors.MissingInput(usage)
	}
	return text, nil
}
