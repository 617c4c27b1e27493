package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// readInput decodes a YAML or JSON file into v. "-" reads stdin. YAML is
// decoded generically and re-encoded as JSON so v's JSON decoding rules apply.
func readInput(path string, stdin io.Reader, v any) error {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return decodeInput(raw, isJSONPath(path), v)
}

func decodeInput(raw []byte, asJSON bool, v any) error {
	if asJSON {
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
		return nil
	}

	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	b, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("convert yaml: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return nil
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
