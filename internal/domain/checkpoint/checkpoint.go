// Package checkpoint defines the Checkpoint value object: an opaque,
// per-pipeline JSON document replaced atomically on each save.
package checkpoint

import "encoding/json"

// Checkpoint is opaque to the orchestrator; only the step adapter that
// wrote it knows how to interpret State. Sequence is the monotonic
// counter the orchestrator itself maintains across saves within a run —
// it never decreases, matching the "checkpoints are monotonic within a
// run" invariant.
type Checkpoint struct {
	PipelineID string          `json:"pipelineId"`
	StepKey    string          `json:"stepKey,omitempty"`
	Sequence   int64           `json:"sequence"`
	State      json.RawMessage `json:"state"`
}

// Empty reports whether the checkpoint carries no saved state, i.e. a
// fresh run that has never saved one.
func (c Checkpoint) Empty() bool {
	return len(c.State) == 0
}

// Decode unmarshals State into out.
func (c Checkpoint) Decode(out any) error {
	if c.Empty() {
		return nil
	}
	return json.Unmarshal(c.State, out)
}

// Encode builds a Checkpoint carrying state marshaled from v, advancing
// Sequence past prior.Sequence so saves never regress.
func Encode(pipelineID, stepKey string, prior Checkpoint, v any) (Checkpoint, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Checkpoint{}, err
	}
	return Checkpoint{
		PipelineID: pipelineID,
		StepKey:    stepKey,
		Sequence:   prior.Sequence + 1,
		State:      raw,
	}, nil
}
