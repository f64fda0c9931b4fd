package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads the config file at path and returns it merged over the
// defaults. A missing file is not an error: the defaults are returned with
// found set to false. Keys the file does not mention keep their defaults;
// unknown keys are ignored.
func Load(path string) (f File, found bool, err error) {
	f = Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, false, nil
		}
		return f, false, fmt.Errorf("read config: %w", err)
	}

	doc, err := decode(path, data)
	if err != nil {
		return f, true, fmt.Errorf("%s: %w", path, err)
	}

	// Normalize through JSON so every format is validated and merged the
	// same way regardless of how its decoder types numbers.
	raw, err := json.Marshal(doc)
	if err != nil {
		return f, true, fmt.Errorf("%s: normalize: %w", path, err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return f, true, fmt.Errorf("%s: normalize: %w", path, err)
	}
	if err := validateDocument(generic); err != nil {
		return f, true, fmt.Errorf("%s: %w", path, err)
	}

	if err := json.Unmarshal(raw, &f); err != nil {
		return f, true, fmt.Errorf("%s: %w", path, err)
	}
	return f, true, nil
}

// decode parses data according to the file extension. Unknown extensions
// are tried as TOML, then JSON, then YAML.
func decode(path string, data []byte) (map[string]any, error) {
	doc := make(map[string]any)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), &doc); err == nil {
			return doc, nil
		}
		doc = make(map[string]any)
		if err := json.Unmarshal(data, &doc); err == nil {
			return doc, nil
		}
		doc = make(map[string]any)
		if err := yaml.Unmarshal(data, &doc); err == nil {
			return doc, nil
		}
		return nil, errors.New("unable to parse config file (tried TOML, JSON, YAML)")
	}
	return doc, nil
}

// LoadAndResolve loads path (or the default path when empty) and applies
// overrides.
func LoadAndResolve(path string, o Overrides) (*RuntimeConfig, error) {
	if path == "" {
		path = Path()
	}
	f, found, err := Load(path)
	if err != nil {
		return nil, err
	}
	source := ""
	if found {
		source = path
	}
	return Resolve(f, o, source)
}
