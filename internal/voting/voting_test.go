package voting

import (
	"errors"
	"strings"
	"testing"
)

func TestPassedRequiresEveryScoreAtThreshold(t *testing.T) {
	a, err := NewAggregator(9.0)
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}

	res, err := a.CollectVotes([]Evaluation{
		{Evaluator: "TechnicalCritic", Score: 9.0},
		{Evaluator: "NarrativeCritic", Score: 9.5},
		{Evaluator: "AudienceCritic", Score: 10},
	})
	if err != nil {
		t.Fatalf("CollectVotes: %v", err)
	}
	if !res.Passed {
		t.Error("all scores at or above threshold must pass")
	}
	if len(res.FailingEvaluators) != 0 {
		t.Errorf("FailingEvaluators = %v, want empty", res.FailingEvaluators)
	}
}

func TestSingleLowScoreVetoes(t *testing.T) {
	a, _ := NewAggregator(9.0)

	res, err := a.CollectVotes([]Evaluation{
		{Evaluator: "TechnicalCritic", Score: 10},
		{Evaluator: "NarrativeCritic", Score: 8.9, Suggestions: []string{"Tighten act two"}},
		{Evaluator: "AudienceCritic", Score: 10},
	})
	if err != nil {
		t.Fatalf("CollectVotes: %v", err)
	}
	if res.Passed {
		t.Error("one failing evaluator must veto, averaging must not rescue the draft")
	}
	if len(res.FailingEvaluators) != 1 || res.FailingEvaluators[0] != "NarrativeCritic" {
		t.Errorf("FailingEvaluators = %v, want [NarrativeCritic]", res.FailingEvaluators)
	}
	if want := (10 + 8.9 + 10) / 3; res.AverageScore != want {
		t.Errorf("AverageScore = %v, want %v", res.AverageScore, want)
	}
}

func TestPassedMatchesFailingSetEmptiness(t *testing.T) {
	a, _ := NewAggregator(5.0)
	cases := [][]Evaluation{
		{{Evaluator: "A", Score: 5}},
		{{Evaluator: "A", Score: 4.9}},
		{{Evaluator: "A", Score: 0}, {Evaluator: "B", Score: 10}},
		{{Evaluator: "A", Score: 10}, {Evaluator: "B", Score: 10}},
	}
	for i, evals := range cases {
		res, err := a.CollectVotes(evals)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if res.Passed != (len(res.FailingEvaluators) == 0) {
			t.Errorf("case %d: passed=%v but failing=%v", i, res.Passed, res.FailingEvaluators)
		}
	}
}

func TestEmptyVoteSet(t *testing.T) {
	a, _ := NewAggregator(9.0)
	if _, err := a.CollectVotes(nil); !errors.Is(err, ErrEmptyVoteSet) {
		t.Errorf("CollectVotes(nil) = %v, want ErrEmptyVoteSet", err)
	}
}

func TestSetThresholdValidates(t *testing.T) {
	a, _ := NewAggregator(9.0)
	for _, bad := range []float64{-0.1, 10.1, 42} {
		if err := a.SetThreshold(bad); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("SetThreshold(%v) = %v, want ErrInvalidThreshold", bad, err)
		}
	}
	if err := a.SetThreshold(8.0); err != nil {
		t.Errorf("SetThreshold(8.0): %v", err)
	}
	if a.Threshold() != 8.0 {
		t.Errorf("Threshold = %v, want 8.0", a.Threshold())
	}
}

func TestInvalidStartingThreshold(t *testing.T) {
	if _, err := NewAggregator(11); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("NewAggregator(11) = %v, want ErrInvalidThreshold", err)
	}
}

func TestReportMergesFailingSuggestionsOnly(t *testing.T) {
	a, _ := NewAggregator(9.0)
	res, err := a.CollectVotes([]Evaluation{
		{Evaluator: "TechnicalCritic", Score: 6, Suggestions: []string{"Simplify the chase scene", "Cut scene 4"}},
		{Evaluator: "NarrativeCritic", Score: 7, Suggestions: []string{"cut scene 4", "Clarify the ending"}},
		{Evaluator: "AudienceCritic", Score: 9.5, Suggestions: []string{"Keep the twist"}},
	})
	if err != nil {
		t.Fatalf("CollectVotes: %v", err)
	}

	if !strings.Contains(res.Report, "Simplify the chase scene") {
		t.Error("report missing failing evaluator suggestion")
	}
	if !strings.Contains(res.Report, "Clarify the ending") {
		t.Error("report missing second failing evaluator suggestion")
	}
	_, actions, found := strings.Cut(res.Report, "PRIORITY ACTIONS:")
	if !found {
		t.Fatalf("report missing action list:\n%s", res.Report)
	}
	if strings.Count(strings.ToLower(actions), "cut scene 4") != 1 {
		t.Errorf("duplicate suggestion not de-duplicated in action list:\n%s", actions)
	}
	if strings.Contains(actions, "Keep the twist") {
		t.Error("action list must draw only from failing evaluators")
	}
}
