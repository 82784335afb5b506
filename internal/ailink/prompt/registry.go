package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Registry provides access to prompt definitions.
type Registry interface {
	Get(slug string) (*Prompt, error)
	List() []*Prompt
}

// InMemoryRegistry stores prompts by slug.
type InMemoryRegistry struct {
	prompts map[string]*Prompt
}

// NewRegistry builds a registry from prompts.
func NewRegistry(prompts []*Prompt) (*InMemoryRegistry, error) {
	reg := &InMemoryRegistry{prompts: make(map[string]*Prompt)}
	for _, prompt := range prompts {
		if prompt == nil {
			continue
		}
		slug := strings.TrimSpace(prompt.Config.Slug)
		if slug == "" {
			return nil, fmt.Errorf("prompt missing slug")
		}
		if _, ok := reg.prompts[slug]; ok {
			return nil, fmt.Errorf("duplicate prompt slug: %s", slug)
		}
		reg.prompts[slug] = prompt
	}
	return reg, nil
}

// Get returns the prompt for the slug.
func (r *InMemoryRegistry) Get(slug string) (*Prompt, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry not configured")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("prompt slug is required")
	}
	prompt, ok := r.prompts[slug]
	if !ok {
		return nil, fmt.Errorf("prompt %q not found", slug)
	}
	return prompt, nil
}

// List returns prompts sorted by slug.
func (r *InMemoryRegistry) List() []*Prompt {
	if r == nil {
		return nil
	}
	slugs := r.slugs()
	result := make([]*Prompt, 0, len(slugs))
	for _, slug := range slugs {
		result = append(result, r.prompts[slug])
	}
	return result
}

func (r *InMemoryRegistry) slugs() []string {
	keys := make([]string, 0, len(r.prompts))
	for slug := range r.prompts {
		keys = append(keys, slug)
	}
	sort.Strings(keys)
	return keys
}

// Slugs lists the slugs a registry serves, sorted.
func Slugs(reg Registry) []string {
	if reg == nil {
		return nil
	}
	prompts := reg.List()
	slugs := make([]string, 0, len(prompts))
	for _, p := range prompts {
		if p != nil {
			slugs = append(slugs, p.Config.Slug)
		}
	}
	return slugs
}

// Require fails when any of the slugs is missing from reg. Estimation needs
// both of its templates, so a prompts directory that drops one is caught at
// startup instead of on the first request.
func Require(reg Registry, slugs ...string) error {
	if reg == nil {
		return fmt.Errorf("prompt registry not configured")
	}
	var missing []string
	for _, slug := range slugs {
		if _, err := reg.Get(slug); err != nil {
			missing = append(missing, slug)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing prompts: %s", strings.Join(missing, ", "))
	}
	return nil
}
