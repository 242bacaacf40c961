package presenter

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.yaml
var schemasFS embed.FS

var registry = &Registry{}

// Registry holds the embedded entity schemas indexed by name and type key.
type Registry struct {
	once    sync.Once
	byName  map[string]*EntitySchema // "profile" → schema
	byType  map[string]*EntitySchema // "Profile" → schema
	loadErr error
}

func (r *Registry) load() {
	r.once.Do(func() {
		r.byName = make(map[string]*EntitySchema)
		r.byType = make(map[string]*EntitySchema)

		entries, err := schemasFS.ReadDir("schemas")
		if err != nil {
			r.loadErr = fmt.Errorf("reading schemas dir: %w", err)
			return
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			data, err := schemasFS.ReadFile("schemas/" + entry.Name())
			if err != nil {
				continue
			}
			schema := new(EntitySchema)
			if err := yaml.Unmarshal(data, schema); err != nil {
				continue
			}
			r.byName[schema.Entity] = schema
			if schema.TypeKey != "" {
				r.byType[schema.TypeKey] = schema
			}
		}
	})
}

// LookupByName returns a schema by entity name (e.g. "profile").
func LookupByName(name string) *EntitySchema {
	registry.load()
	return registry.byName[name]
}

// LookupByTypeKey returns a schema by payload type key (e.g. "Notification").
func LookupByTypeKey(typeKey string) *EntitySchema {
	registry.load()
	return registry.byType[typeKey]
}

// Detect resolves a schema for data: an explicit entity hint wins, then the
// payload's own "type" field.
func Detect(data any, entityHint string) *EntitySchema {
	if entityHint != "" {
		if s := LookupByName(entityHint); s != nil {
			return s
		}
	}

	switch d := data.(type) {
	case map[string]any:
		if typeKey, ok := d["type"].(string); ok {
			return LookupByTypeKey(typeKey)
		}
	case []map[string]any:
		if len(d) > 0 {
			if typeKey, ok := d[0]["type"].(string); ok {
				return LookupByTypeKey(typeKey)
			}
		}
	}
	return nil
}
