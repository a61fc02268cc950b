package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the project configuration file looked up by FindRoot.
const ConfigFileName = "fieldkit.yaml"

// FindRoot looks upwards from startDir for a project root.
// Indicators are a .fieldkit directory or a fieldkit.yaml file.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ".fieldkit") || hasFile(dir, ConfigFileName) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
