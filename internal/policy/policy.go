package policy

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/support-desk/internal/domain"
)

// File is the on-disk shape of the policy document.
type File struct {
	SLA        []SLARuleConfig  `yaml:"sla"`
	Categories []CategoryConfig `yaml:"categories"`
}

// SLARuleConfig maps a priority label to its budgets in minutes.
type SLARuleConfig struct {
	Priority             string `yaml:"priority"`
	FirstResponseMinutes int    `yaml:"first_response_minutes"`
	ResolutionMinutes    int    `yaml:"resolution_minutes"`
}

// CategoryConfig holds routing defaults for a category id.
type CategoryConfig struct {
	ID                 string `yaml:"id"`
	Type               string `yaml:"type"`
	Priority           string `yaml:"priority"`
	DestinationProfile string `yaml:"destination_profile"`
}

// Policy is a read-only SLA table and category directory.
type Policy struct {
	rules      map[string]domain.SLARule
	categories map[string]domain.Category
}

// Load reads the policy file at path. A missing file yields an empty policy,
// which leaves every ticket untracked and unrouted.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(File{})
		}
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML policy document.
func Parse(data []byte) (*Policy, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse policy YAML: %w", err)
	}
	return New(file)
}

// New validates file and builds the lookup tables.
func New(file File) (*Policy, error) {
	p := &Policy{
		rules:      make(map[string]domain.SLARule, len(file.SLA)),
		categories: make(map[string]domain.Category, len(file.Categories)),
	}
	for _, rule := range file.SLA {
		key := normalize(rule.Priority)
		if key == "" {
			return nil, fmt.Errorf("sla rule without priority")
		}
		if rule.FirstResponseMinutes <= 0 || rule.ResolutionMinutes <= 0 {
			return nil, fmt.Errorf("sla rule %q: budgets must be positive", rule.Priority)
		}
		if _, dup := p.rules[key]; dup {
			return nil, fmt.Errorf("sla rule %q declared twice", rule.Priority)
		}
		p.rules[key] = domain.SLARule{
			Priority:             strings.TrimSpace(rule.Priority),
			FirstResponseMinutes: rule.FirstResponseMinutes,
			ResolutionMinutes:    rule.ResolutionMinutes,
		}
	}
	for _, category := range file.Categories {
		id := strings.TrimSpace(category.ID)
		if id == "" {
			return nil, fmt.Errorf("category without id")
		}
		if _, dup := p.categories[id]; dup {
			return nil, fmt.Errorf("category %q declared twice", id)
		}
		p.categories[id] = domain.Category{
			ID:                 id,
			Type:               strings.TrimSpace(category.Type),
			Priority:           strings.TrimSpace(category.Priority),
			DestinationProfile: strings.TrimSpace(category.DestinationProfile),
		}
	}
	return p, nil
}

// Lookup returns the SLA rule for priority, matched case-insensitively.
func (p *Policy) Lookup(_ context.Context, priority string) (domain.SLARule, bool) {
	rule, ok := p.rules[normalize(priority)]
	return rule, ok
}

// Category returns the routing defaults for id.
func (p *Policy) Category(_ context.Context, id string) (domain.Category, bool) {
	category, ok := p.categories[strings.TrimSpace(id)]
	return category, ok
}

// Rules returns the number of configured SLA rules.
func (p *Policy) Rules() int {
	return len(p.rules)
}

func normalize(priority string) string {
	return strings.ToLower(strings.TrimSpace(priority))
}
