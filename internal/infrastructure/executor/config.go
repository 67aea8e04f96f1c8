package executor

import (
	"encoding/json"
	"fmt"

	domainloader "github.com/flowforge/streamline/internal/domain/loader"
	domaintransform "github.com/flowforge/streamline/internal/domain/transform"
)

// literalString renders a gate/branch predicate's JSON-decoded value as
// the plain string EvaluatePredicate compares against.
func literalString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// decodeInto round-trips a step's declarative config map through JSON
// into a typed struct; every domain config type already carries json
// tags for the YAML/JSON pipeline-definition file, so this is the same
// conversion the file loader itself performs, not a new capability.
func decodeInto(cfg map[string]any, out any) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// transformStepConfig is a TRANSFORM step's declarative config: a list
// of field mappings applied independently to the incoming record.
type transformStepConfig struct {
	Mappings []domaintransform.FieldMapping `json:"mappings"`
}

// loadStepConfig is a LOAD step's declarative config: which registered
// entity type to load into and which upsert operation to run.
type loadStepConfig struct {
	EntityType     string                 `json:"entityType"`
	Operation      domainloader.Operation `json:"operation"`
	SkipDuplicates bool                   `json:"skipDuplicates"`
}

// gateStepConfig is a GATE step's declarative config: a single predicate
// over the whole record; the step pauses the run when it fails.
type gateStepConfig struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// branchStepConfig is a BRANCH step's declarative config: one predicate
// per downstream target key (the step definition's branchTargets),
// applied when that target gathers its input so one branch can feed
// several targets with different slices of the same record set.
type branchStepConfig struct {
	Routes map[string]branchPredicate `json:"routes"`
}

type branchPredicate struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}
