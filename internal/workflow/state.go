// Package workflow drives the propose/evaluate/vote/revise loop and owns
// the persisted run state.
package workflow

import (
	"time"

	"github.com/xggarcia/Curt-IA/internal/voting"
)

// Phase names a stage of the workflow state machine. Phases only advance;
// a run never regresses except by explicit resume from a checkpoint.
type Phase string

const (
	PhaseInit               Phase = "INIT"
	PhasePreparation        Phase = "PREPARATION"
	PhaseRefinement         Phase = "REFINEMENT"
	PhaseRefinementComplete Phase = "REFINEMENT_COMPLETE"
)

func (p Phase) valid() bool {
	switch p {
	case PhaseInit, PhasePreparation, PhaseRefinement, PhaseRefinementComplete:
		return true
	}
	return false
}

// State is the single unit of persisted progress for one run. It is
// mutated exclusively by the Orchestrator and written in full after every
// state-changing step.
type State struct {
	RunID     string `json:"runId"`
	Phase     Phase  `json:"phase"`
	Iteration int    `json:"iteration"`

	// Subject seeded the run and is immutable after creation.
	Subject string `json:"subjectDescription"`

	// Vision is produced once during PREPARATION and immutable after.
	Vision map[string]string `json:"visionParameters,omitempty"`

	// Artifact is the latest accepted-or-in-progress draft.
	Artifact string `json:"currentArtifact,omitempty"`

	// DraftIteration records which iteration Artifact belongs to, so a
	// resume can tell a persisted draft apart from a stale one left by a
	// crash between the iteration increment and draft production.
	DraftIteration int `json:"draftIteration,omitempty"`

	// History accumulates every tribunal evaluation of the run so the
	// deadlock protocol sees all rounds, including those before a crash.
	History []voting.Evaluation `json:"evaluationHistory,omitempty"`

	// UpdatedAt is the last write time, for operator staleness reasoning
	// only; the machine itself never reads it.
	UpdatedAt time.Time `json:"timestamp"`
}
