package icons

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pack is a user-provided icon pack loaded from a YAML file. Pack icons
// extend the known-icon set so custom IDs survive resolution.
type Pack struct {
	Name  string `yaml:"name"`
	Icons []Icon `yaml:"icons"`
}

// LoadPack reads and validates a custom icon pack.
func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read icon pack %s: %w", path, err)
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse icon pack %s: %w", path, err)
	}

	if err := pack.validate(); err != nil {
		return nil, fmt.Errorf("invalid icon pack %s: %w", path, err)
	}
	return &pack, nil
}

func (p *Pack) validate() error {
	if len(p.Icons) == 0 {
		return fmt.Errorf("pack contains no icons")
	}

	seen := make(map[string]bool, len(p.Icons))
	for i := range p.Icons {
		id := p.Icons[i].ID
		if id == "" {
			return fmt.Errorf("icon %d: missing id", i)
		}
		if id != strings.ToLower(id) {
			return fmt.Errorf("icon %d: id %q must be lower-case", i, id)
		}
		if seen[id] {
			return fmt.Errorf("icon %d: duplicate id %q", i, id)
		}
		seen[id] = true
	}
	return nil
}

// IDs returns the icon IDs declared by the pack.
func (p *Pack) IDs() []string {
	ids := make([]string, len(p.Icons))
	for i := range p.Icons {
		ids[i] = p.Icons[i].ID
	}
	return ids
}
