package agents

import (
	"reflect"
	"testing"
)

func TestParseEvaluationWellFormed(t *testing.T) {
	response := `SCORE: 8/10
STRENGTHS: Crisp visual writing
ISSUES: The ending rushes
SUGGESTIONS: Slow down the final scene
- Add a beat before the reveal`

	ev := parseEvaluation("TechnicalCritic", response)

	if ev.Evaluator != "TechnicalCritic" {
		t.Errorf("Evaluator = %q", ev.Evaluator)
	}
	if ev.Score != 8 {
		t.Errorf("Score = %v, want 8 (parsed from 8/10)", ev.Score)
	}
	want := []string{"Slow down the final scene", "Add a beat before the reveal"}
	if !reflect.DeepEqual(ev.Suggestions, want) {
		t.Errorf("Suggestions = %v, want %v", ev.Suggestions, want)
	}
	if ev.Comments == "" {
		t.Error("comments should carry strengths and issues")
	}
}

func TestParseEvaluationMalformedScoreDegradesToNeutral(t *testing.T) {
	cases := []string{
		"SCORE: excellent\nISSUES: none",
		"SCORE:\nISSUES: none",
		"no score line at all",
	}
	for _, response := range cases {
		ev := parseEvaluation("NarrativeCritic", response)
		if ev.Score != neutralScore {
			t.Errorf("response %q: Score = %v, want neutral %v", response, ev.Score, neutralScore)
		}
	}
}

func TestParseScoreClampsToDomain(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"11", 10},
		{"15/10", 10},
		{"-3", 0},
		{"7.5", 7.5},
		{"9 / 10", 9},
	}
	for _, tc := range cases {
		if got := parseScore(tc.raw); got != tc.want {
			t.Errorf("parseScore(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestParseEvaluationAlwaysHasSuggestions(t *testing.T) {
	ev := parseEvaluation("AudienceCritic", "SCORE: 4\nISSUES: The middle act drags badly")
	if len(ev.Suggestions) == 0 {
		t.Fatal("low-scoring evaluation must still carry actionable suggestions")
	}

	high := parseEvaluation("AudienceCritic", "SCORE: 9.5\nSTRENGTHS: flawless")
	if len(high.Suggestions) == 0 {
		t.Fatal("high-scoring evaluation still gets a placeholder suggestion")
	}
}

func TestParseVision(t *testing.T) {
	vision := parseVision(`GENRE: Sci-Fi
TONE: Thoughtful and melancholic
PACING: slow contemplative
MESSAGE: Empathy is learned

trailing line without separator`)

	want := map[string]string{
		"genre":   "Sci-Fi",
		"tone":    "Thoughtful and melancholic",
		"pacing":  "slow contemplative",
		"message": "Empathy is learned",
	}
	if !reflect.DeepEqual(vision, want) {
		t.Errorf("parseVision = %v, want %v", vision, want)
	}
}
