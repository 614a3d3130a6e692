// Package voting turns independent scored evaluations into a single
// accept/reject decision under a mutable quality threshold.
package voting

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyVoteSet is returned when a decision is requested with no
	// evaluations; a verdict requires at least one evaluator.
	ErrEmptyVoteSet = errors.New("voting: no evaluations provided")

	// ErrInvalidThreshold is returned for thresholds outside [0, 10].
	ErrInvalidThreshold = errors.New("voting: threshold must be between 0 and 10")
)

// Evaluation is the scored verdict of one evaluator.
type Evaluation struct {
	Evaluator   string   `json:"evaluatorName"`
	Score       float64  `json:"score"`
	Comments    string   `json:"comments"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Result is the outcome of one voting round. Derived, never persisted on
// its own.
type Result struct {
	Passed            bool
	AverageScore      float64
	FailingEvaluators []string
	Report            string
}

// Aggregator holds the active threshold. A single low score vetoes
// acceptance: passing requires every evaluator to clear the threshold.
type Aggregator struct {
	threshold float64
}

// NewAggregator creates an aggregator with the given starting threshold.
func NewAggregator(threshold float64) (*Aggregator, error) {
	a := &Aggregator{}
	if err := a.SetThreshold(threshold); err != nil {
		return nil, err
	}
	return a, nil
}

// SetThreshold replaces the active threshold. Used by the deadlock-breaking
// path to temporarily relax strictness.
func (a *Aggregator) SetThreshold(t float64) error {
	if t < 0 || t > 10 {
		return fmt.Errorf("%w: got %.1f", ErrInvalidThreshold, t)
	}
	a.threshold = t
	return nil
}

// Threshold returns the active threshold.
func (a *Aggregator) Threshold() float64 {
	return a.threshold
}

// CollectVotes aggregates the evaluations into a Result. The average score
// is reported for observability only and never drives the decision.
func (a *Aggregator) CollectVotes(evals []Evaluation) (Result, error) {
	if len(evals) == 0 {
		return Result{}, ErrEmptyVoteSet
	}

	var sum float64
	var failing []string
	for _, ev := range evals {
		sum += ev.Score
		if ev.Score < a.threshold {
			failing = append(failing, ev.Evaluator)
		}
	}

	res := Result{
		Passed:            len(failing) == 0,
		AverageScore:      sum / float64(len(evals)),
		FailingEvaluators: failing,
	}
	res.Report = a.renderReport(evals, res)
	return res, nil
}

// renderReport formats all evaluations plus, when rejected, a merged
// de-duplicated action list drawn only from failing evaluators.
func (a *Aggregator) renderReport(evals []Evaluation, res Result) string {
	var b strings.Builder
	b.WriteString("=== TRIBUNAL VOTING RESULTS ===\n\n")
	if res.Passed {
		b.WriteString("STATUS: ✓ APPROVED\n\n")
	} else {
		b.WriteString("STATUS: ✗ REJECTED\n\n")
	}

	for _, ev := range evals {
		mark := "✓"
		if ev.Score < a.threshold {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s [%s] Score: %.1f/10\n", mark, ev.Evaluator, ev.Score)
		fmt.Fprintf(&b, "   Comments: %s\n", ev.Comments)
		if ev.Score < a.threshold && len(ev.Suggestions) > 0 {
			b.WriteString("   Suggestions:\n")
			for i, s := range ev.Suggestions {
				fmt.Fprintf(&b, "   %d. %s\n", i+1, s)
			}
		}
		b.WriteString("\n")
	}

	if res.Passed {
		b.WriteString("VERDICT: All evaluators approve. Proceed to next phase.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "VERDICT: Revisions needed (avg score: %.1f/10)\n", res.AverageScore)
	b.WriteString("\nPRIORITY ACTIONS:\n")
	seen := make(map[string]bool)
	n := 0
	for _, ev := range evals {
		if ev.Score >= a.threshold {
			continue
		}
		for _, s := range ev.Suggestions {
			key := strings.ToLower(strings.TrimSpace(s))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			n++
			fmt.Fprintf(&b, "%d. %s\n", n, s)
		}
	}
	return b.String()
}
