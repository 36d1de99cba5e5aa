package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name looked up in the
// current and home directories.
const DefaultConfigFile = ".webconv"

// xdgConfigFile is the file name looked up inside the XDG config directory.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile parses the YAML configuration file at path.
// Unknown keys are rejected so that typos such as "ignorePattern" surface
// instead of being silently dropped. An empty file is a valid, empty
// configuration.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return nil, err
	}

	cf := NewFile()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid configuration file %s: %w", path, err)
	}
	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}
	return cf, nil
}

// configCandidates returns the implicit lookup locations, in order:
// ./.webconv, ~/.webconv and {XDG config}/webconv/config.yaml.
func configCandidates() []string {
	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	return append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))
}

// FindConfigFile returns the configuration file to use, or "" if none
// exists. An explicit configPath is only checked for existence; otherwise
// the first existing implicit location wins.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}
	for _, candidate := range configCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Load finds and parses the configuration file. A missing explicitPath is
// an error; when no path is given and no file exists, an empty File is
// returned. The second result is the file that was loaded, if any.
func Load(explicitPath string) (*File, string, error) {
	path := FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, explicitPath)
		}
		return NewFile(), "", nil
	}

	cf, err := LoadConfigFile(path)
	if err != nil {
		return nil, path, err
	}
	return cf, path, nil
}
