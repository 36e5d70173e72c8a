// Package outlet holds the read-only registry of news outlets: the feed
// endpoints of each outlet grouped by category and the mapping from the
// outlet's native entry fields to the canonical record schema.
package outlet

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownOutlet   = errors.New("unknown outlet")
	ErrUnknownCategory = errors.New("unknown category")
)

type Registry struct {
	outlets map[string]Outlet
}

func New(outlets ...Outlet) (*Registry, error) {
	r := &Registry{outlets: make(map[string]Outlet, len(outlets))}

	for _, o := range outlets {
		if err := validate(o); err != nil {
			return nil, fmt.Errorf("invalid outlet '%s': %w", o.Name, err)
		}
		if _, exists := r.outlets[o.Name]; exists {
			return nil, fmt.Errorf("duplicate outlet '%s'", o.Name)
		}
		r.outlets[o.Name] = o.clone()
	}

	return r, nil
}

// LoadDir reads one outlet per *.yml / *.yaml file in dir. A missing
// directory yields an empty registry.
func LoadDir(dir string) (*Registry, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return New()
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	yamlFiles, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}
	files = append(files, yamlFiles...)
	slices.Sort(files)

	outlets := make([]Outlet, 0, len(files))
	for _, file := range files {
		o, err := parseFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Outlet loaded", "outlet", o.Name, "categories", len(o.Links), "file", file)
		outlets = append(outlets, o)
	}

	return New(outlets...)
}

func (r *Registry) Get(name string) (Outlet, error) {
	o, ok := r.outlets[name]
	if !ok {
		return Outlet{}, fmt.Errorf("%w: '%s'", ErrUnknownOutlet, name)
	}
	return o.clone(), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.outlets))
	for name := range r.outlets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) Count() int {
	return len(r.outlets)
}

// Endpoints lists the feed URLs of an outlet in declaration order. An empty
// category selects every category of the outlet.
func (r *Registry) Endpoints(name, category string) ([]Endpoint, error) {
	o, ok := r.outlets[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownOutlet, name)
	}

	var endpoints []Endpoint
	found := false
	for _, c := range o.Links {
		if category != "" && c.Name != category {
			continue
		}
		found = true
		for _, u := range c.URLs {
			endpoints = append(endpoints, Endpoint{Outlet: o.Name, Category: c.Name, URL: u})
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: '%s' for outlet '%s'", ErrUnknownCategory, category, name)
	}

	return endpoints, nil
}

func parseFile(path string) (Outlet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Outlet{}, fmt.Errorf("failed to read file: %w", err)
	}

	var o Outlet
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Outlet{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if strings.TrimSpace(o.Name) == "" {
		base := filepath.Base(path)
		o.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return o, nil
}

func validate(o Outlet) error {
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("outlet name is required")
	}

	if len(o.Links) == 0 {
		return fmt.Errorf("at least one category is required")
	}

	seen := make(map[string]bool, len(o.Links))
	for _, c := range o.Links {
		if c.Name == "" {
			return fmt.Errorf("category name is required")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate category '%s'", c.Name)
		}
		seen[c.Name] = true

		if len(c.URLs) == 0 {
			return fmt.Errorf("category '%s' has no URLs", c.Name)
		}
		for _, raw := range c.URLs {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("category '%s' has invalid URL '%s'", c.Name, raw)
			}
		}
	}

	for field := range o.Mapping {
		if !slices.Contains(CanonicalFields, field) {
			return fmt.Errorf("invalid mapping field: %s", field)
		}
	}

	return nil
}
