package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Category struct {
	Slug              string   `yaml:"slug" toml:"slug" json:"slug"`
	Name              string   `yaml:"name" toml:"name" json:"name"`
	Aliases           []string `yaml:"aliases" toml:"aliases" json:"aliases,omitempty"`
	PrependDateToSlug bool     `yaml:"prependDateToSlug" toml:"prependDateToSlug" json:"prependDateToSlug"`
}

type Domain struct {
	Slug    string   `yaml:"slug" toml:"slug" json:"slug"`
	Name    string   `yaml:"name" toml:"name" json:"name"`
	Aliases []string `yaml:"aliases" toml:"aliases" json:"aliases,omitempty"`
}

type Tool struct {
	Slug string `yaml:"slug" toml:"slug" json:"slug"`
	Name string `yaml:"name" toml:"name" json:"name"`
}

type Catalog struct {
	Categories []Category `yaml:"categories" toml:"categories"`
	Domains    []Domain   `yaml:"domains" toml:"domains"`
	Tools      []Tool     `yaml:"tools" toml:"tools"`
}

// DefaultCatalog returns the catalogue compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog, "yaml")
}

// LoadCatalog reads a catalogue file; the format follows the extension
// (.yaml, .yml or .toml). An empty path yields the default catalogue.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	b, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return ParseCatalog(b, ext)
}

func ParseCatalog(b []byte, format string) (*Catalog, error) {
	var c Catalog
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse yaml catalog: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse toml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Categories) == 0 {
		return errors.New("catalog: at least one category is required")
	}
	seen := map[string]bool{}
	for _, cat := range c.Categories {
		if cat.Slug == "" {
			return errors.New("catalog: category slug is required")
		}
		if seen[cat.Slug] {
			return fmt.Errorf("catalog: duplicate category %q", cat.Slug)
		}
		seen[cat.Slug] = true
	}
	for _, d := range c.Domains {
		if d.Slug == "" {
			return errors.New("catalog: domain slug is required")
		}
	}
	return nil
}
