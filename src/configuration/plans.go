package configuration

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var plansYAML []byte

type (
	Inclusion struct {
		Label    string `yaml:"label" json:"label"`
		Included bool   `yaml:"included" json:"isIncluded"`
	}

	// Plan is a purchasable credit package. Price is in whole currency units.
	Plan struct {
		ID         int         `yaml:"id" json:"_id"`
		Name       string      `yaml:"name" json:"name"`
		Icon       string      `yaml:"icon" json:"icon"`
		Price      int64       `yaml:"price" json:"price"`
		Credits    int         `yaml:"credits" json:"credits"`
		Inclusions []Inclusion `yaml:"inclusions" json:"inclusions"`
	}

	Plans []Plan
)

// LoadPlans parses the embedded plan catalog.
func LoadPlans() (Plans, error) {
	return ParsePlans(plansYAML)
}

func ParsePlans(data []byte) (Plans, error) {
	var doc struct {
		Plans Plans `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("can not parse plans: %w", err)
	}
	for _, p := range doc.Plans {
		if p.Name == "" || p.Credits < 0 || p.Price < 0 {
			return nil, fmt.Errorf("invalid plan %+v", p)
		}
	}
	return doc.Plans, nil
}

// Find looks a plan up by name, ignoring case.
func (p Plans) Find(name string) (Plan, bool) {
	for _, plan := range p {
		if strings.EqualFold(plan.Name, strings.TrimSpace(name)) {
			return plan, true
		}
	}
	return Plan{}, false
}
