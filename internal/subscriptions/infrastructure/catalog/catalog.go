// Package catalog loads the plan catalog from YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

//go:embed plans.yaml
var defaultPlans []byte

// Definition is the YAML document describing the catalog.
type Definition struct {
	Version string           `yaml:"version"`
	Plans   []PlanDefinition `yaml:"plans"`
}

// PlanDefinition is one plan entry.
type PlanDefinition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Duration    string `yaml:"duration"`
	Price       *int64 `yaml:"price,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Default returns the built-in catalog.
func Default() (*subscription.Catalog, error) {
	return Parse(defaultPlans)
}

// Load reads the catalog at path, or the built-in catalog when path is empty.
func Load(path string) (*subscription.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*subscription.Catalog, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode plan catalog: %w", err)
	}
	if len(def.Plans) == 0 {
		return nil, fmt.Errorf("plan catalog has no plans")
	}

	plans := make([]subscription.Plan, 0, len(def.Plans))
	for _, p := range def.Plans {
		plans = append(plans, subscription.Plan{
			ID:          strings.TrimSpace(p.ID),
			Name:        strings.TrimSpace(p.Name),
			Duration:    subscription.DurationCode(strings.TrimSpace(p.Duration)),
			Price:       p.Price,
			Description: p.Description,
		})
	}
	return subscription.NewCatalog(plans)
}
