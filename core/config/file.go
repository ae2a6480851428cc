package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a configuration document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json" // also accepts JSONC comments and trailing commas
)

// FormatFromPath picks the format from the file extension. Unknown extensions
// are read as YAML, which is a superset of plain JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// LoadFile reads a Configuration from a YAML or JSON/JSONC file.
//
// String values may reference environment variables as ${VAR} or
// ${VAR:-default}, so files can be committed without secrets:
//
//	provider: groq
//	api_key: ${GROQ_API_KEY}
//	base_urls:
//	  gpt-4o: ${PROXY_URL:-http://localhost:8080/v1}
func LoadFile(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return Configuration{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document and expands environment references.
func Parse(data []byte, format Format) (Configuration, error) {
	var cfg Configuration

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return Configuration{}, fmt.Errorf("parsing json config: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Configuration{}, fmt.Errorf("parsing yaml config: %w", err)
		}
	default:
		return Configuration{}, fmt.Errorf("unsupported config format %q", format)
	}

	cfg.expandVariables()
	return cfg, nil
}

func (c *Configuration) expandVariables() {
	c.APIKey = expandVars(c.APIKey)
	c.BaseURL = expandVars(c.BaseURL)
	c.Provider = expandVars(c.Provider)
	for key, url := range c.BaseURLs {
		c.BaseURLs[key] = expandVars(url)
	}
	for key, value := range c.Extra {
		if text, ok := value.(string); ok {
			c.Extra[key] = expandVars(text)
		}
	}
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
