// Package extractors holds what every concrete extractor adapter
// package (http, sql, file, git) shares: the JSON round-trip that turns
// a step's declarative map[string]any config into the adapter's typed
// config struct.
package extractors

import "encoding/json"

// Decode round-trips cfg through JSON into out, the same conversion the
// transform/load/gate step dispatch already performs against their own
// declarative config maps.
func Decode(cfg map[string]any, out any) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
