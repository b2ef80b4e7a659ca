// pkg/config/rules.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/David-Botos/mart-export/pkg/policy"
	"github.com/David-Botos/mart-export/pkg/taxonomy"
)

// RulesFile overrides the built-in taxonomy and column policy. Either
// section may be omitted to keep the built-in value.
type RulesFile struct {
	Categories map[string][]string `yaml:"categories" toml:"categories"`
	Policy     []policy.Rule       `yaml:"policy" toml:"policy"`
}

// LoadRules reads a YAML (.yaml, .yml) or TOML (.toml) rules file
func LoadRules(path string) (*RulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules RulesFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &rules); err != nil {
			return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported rules file extension %q", ext)
	}

	for i, rule := range rules.Policy {
		if rule.Action == "" {
			return nil, fmt.Errorf("policy rule %d has no action", i)
		}
	}

	return &rules, nil
}

// Taxonomy returns the file's categories, or def when the file has none
func (r *RulesFile) Taxonomy(def taxonomy.Taxonomy) taxonomy.Taxonomy {
	if r == nil || len(r.Categories) == 0 {
		return def
	}
	return taxonomy.Taxonomy(r.Categories)
}

// ColumnPolicy returns the file's policy, or def when the file has none.
// Unknown actions are kept and reported when the policy is applied.
func (r *RulesFile) ColumnPolicy(def policy.Policy) policy.Policy {
	if r == nil || len(r.Policy) == 0 {
		return def
	}
	return policy.Policy(r.Policy)
}

// RulesPath returns EXPORT_RULES_FILE without loading the rest of the
// configuration
func RulesPath() string {
	return strings.TrimSpace(newViper().GetString("EXPORT_RULES_FILE"))
}

// LoadOptionalRules loads the rules file at path, returning nil when path is
// empty so the built-in taxonomy and policy apply
func LoadOptionalRules(path string) (*RulesFile, error) {
	if path == "" {
		return nil, nil
	}
	return LoadRules(path)
}
