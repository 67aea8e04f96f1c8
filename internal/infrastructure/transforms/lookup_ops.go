package transforms

import (
	"context"
	"strings"

	"github.com/flowforge/streamline/internal/ports"
)

// registerLookupOps registers LOOKUP (the only genuinely async built-in,
// consulting the entity store) and the static MAP form.
func registerLookupOps(r *Registry, lookup ports.EntityLookup) {
	r.Register("LOOKUP", func(ctx context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		if lookup == nil {
			return nil, nil
		}
		entityType := cfgString(cfg, "entityType", "")
		fromField := cfgString(cfg, "fromField", "code")
		toField := cfgString(cfg, "toField", "id")
		if entityType == "" {
			return nil, nil
		}
		return lookup.Lookup(ctx, entityType, fromField, value, toField)
	})
	r.Register("MAP", func(_ context.Context, value any, cfg map[string]any, _ map[string]any) (any, error) {
		values, _ := cfg["values"].(map[string]any)
		caseSensitive := cfgBool(cfg, "caseSensitive", true)
		key := asString(value)
		if !caseSensitive {
			for k, v := range values {
				if strings.EqualFold(k, key) {
					return v, nil
				}
			}
		} else if v, ok := values[key]; ok {
			return v, nil
		}
		if def, ok := cfg["defaultValue"]; ok {
			return def, nil
		}
		return nil, nil
	})
}
