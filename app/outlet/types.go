package outlet

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Canonical field names every outlet is normalized into.
const (
	FieldTitle        = "title"
	FieldLink         = "link"
	FieldSummary      = "summary"
	FieldPublished    = "published"
	FieldUpdated      = "updated"
	FieldTags         = "tags"
	FieldMediaContent = "media_content"
	FieldContent      = "content"
	FieldAuthors      = "authors"
	FieldID           = "id"
)

// CanonicalFields lists the canonical schema in column order.
var CanonicalFields = []string{
	FieldTitle,
	FieldLink,
	FieldSummary,
	FieldPublished,
	FieldUpdated,
	FieldTags,
	FieldMediaContent,
	FieldContent,
	FieldAuthors,
	FieldID,
}

// Mapping translates canonical field names into an outlet's native field
// names. A nil value, or a missing key, marks the field as unavailable.
type Mapping map[string]*string

// Native returns the native field name for a canonical field.
func (m Mapping) Native(field string) (string, bool) {
	native, ok := m[field]
	if !ok || native == nil || *native == "" {
		return "", false
	}
	return *native, true
}

type Outlet struct {
	Name    string     `yaml:"name"`
	Links   Categories `yaml:"links"`
	Mapping Mapping    `yaml:"mapping"`
}

type Category struct {
	Name string
	URLs []string
}

// Categories keeps the declaration order of the YAML links mapping.
type Categories []Category

type Endpoint struct {
	Outlet   string
	Category string
	URL      string
}

func (c *Categories) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: links must map category names to URLs", value.Line)
	}

	categories := make(Categories, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		category := Category{Name: key.Value}

		switch val.Kind {
		case yaml.ScalarNode:
			category.URLs = []string{val.Value}
		case yaml.SequenceNode:
			if err := val.Decode(&category.URLs); err != nil {
				return fmt.Errorf("line %d: failed to decode URLs for category '%s': %w", val.Line, key.Value, err)
			}
		default:
			return fmt.Errorf("line %d: category '%s' must be a URL or a list of URLs", val.Line, key.Value)
		}

		categories = append(categories, category)
	}

	*c = categories
	return nil
}

func (o Outlet) clone() Outlet {
	links := make(Categories, len(o.Links))
	for i, category := range o.Links {
		links[i] = Category{
			Name: category.Name,
			URLs: append([]string(nil), category.URLs...),
		}
	}

	mapping := make(Mapping, len(o.Mapping))
	for field, native := range o.Mapping {
		if native == nil {
			mapping[field] = nil
			continue
		}
		value := *native
		mapping[field] = &value
	}

	return Outlet{Name: o.Name, Links: links, Mapping: mapping}
}
