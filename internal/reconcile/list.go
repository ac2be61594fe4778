package reconcile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one book in a canonical edition list.
type Entry struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	ISBN   string `yaml:"isbn"`
	Owned  bool   `yaml:"owned"`
}

// List is a canonical edition list for one catalog section.
type List struct {
	Section string  `yaml:"section"`
	Entries []Entry `yaml:"entries"`
}

// LoadList reads a canonical edition list from a YAML file.
func LoadList(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read list file: %w", err)
	}

	var list List
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unable to parse list file %s: %w", path, err)
	}

	if list.Section == "" {
		return nil, fmt.Errorf("list file %s has no section", path)
	}
	return &list, nil
}
