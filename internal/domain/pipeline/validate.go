package pipeline

import (
	"fmt"

	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// ValidateStructure enforces the definition-wide invariants that don't
// depend on any adapter: stepKey uniqueness, and every referenced key
// (branch target, merge source) resolving to a real step.
func ValidateStructure(def Definition) error {
	seen := make(map[string]struct{}, len(def.Steps))
	for _, s := range def.Steps {
		if s.Key == "" {
			return pipelineerr.New(pipelineerr.ConfigInvalid, "step key must not be empty")
		}
		if _, dup := seen[s.Key]; dup {
			return pipelineerr.Newf(pipelineerr.ConfigInvalid, "duplicate step key %q", s.Key)
		}
		seen[s.Key] = struct{}{}
	}

	for _, s := range def.Steps {
		for _, target := range s.BranchTargets {
			if _, ok := seen[target]; !ok {
				return pipelineerr.Newf(pipelineerr.ConfigInvalid, "step %q branches to unknown key %q", s.Key, target)
			}
		}
		for _, src := range s.MergeSources {
			if _, ok := seen[src]; !ok {
				return pipelineerr.Newf(pipelineerr.ConfigInvalid, "step %q merges unknown key %q", s.Key, src)
			}
		}
	}
	return nil
}

// ValidateForExecution additionally requires the definition be in a
// runnable state.
func ValidateForExecution(def Definition) error {
	if err := ValidateStructure(def); err != nil {
		return err
	}
	if !def.Executable() {
		return pipelineerr.Newf(pipelineerr.ConfigInvalid, "pipeline %s is not executable (status=%s enabled=%v)", def.Code, def.Status, def.Enabled)
	}
	if len(def.Steps) == 0 {
		return pipelineerr.New(pipelineerr.ConfigInvalid, fmt.Sprintf("pipeline %s has no steps", def.Code))
	}
	return nil
}
