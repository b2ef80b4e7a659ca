// pkg/output/manifest.go
package output

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// WriteManifest writes v as indented JSON to path
func WriteManifest(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}
