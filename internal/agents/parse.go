package agents

import (
	"strconv"
	"strings"

	"github.com/xggarcia/Curt-IA/internal/voting"
)

// neutralScore is substituted when an evaluator reply carries no parsable
// numeric score. A parse failure must never propagate past this default.
const neutralScore = 5.0

// parseEvaluation turns a critic's free-text reply (SCORE / STRENGTHS /
// ISSUES / SUGGESTIONS sections) into a typed evaluation. Scores are
// clamped to [0, 10].
func parseEvaluation(evaluator, response string) voting.Evaluation {
	ev := voting.Evaluation{
		Evaluator: evaluator,
		Score:     neutralScore,
	}

	var comments strings.Builder
	section := ""

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "SCORE:"):
			section = ""
			ev.Score = parseScore(strings.TrimSpace(strings.TrimPrefix(line, "SCORE:")))
		case strings.HasPrefix(line, "STRENGTHS:"):
			section = "strengths"
			if rest := strings.TrimSpace(strings.TrimPrefix(line, "STRENGTHS:")); rest != "" {
				comments.WriteString("Strengths: " + rest + "\n")
			}
		case strings.HasPrefix(line, "ISSUES:"):
			section = "issues"
			if rest := strings.TrimSpace(strings.TrimPrefix(line, "ISSUES:")); rest != "" {
				comments.WriteString("Issues: " + rest + "\n")
			}
		case strings.HasPrefix(line, "SUGGESTIONS:"):
			section = "suggestions"
			if rest := strings.TrimSpace(strings.TrimPrefix(line, "SUGGESTIONS:")); rest != "" {
				ev.Suggestions = append(ev.Suggestions, rest)
			}
		case line != "" && section == "suggestions":
			if item, ok := trimListMarker(line); ok {
				ev.Suggestions = append(ev.Suggestions, item)
			}
		case line != "" && (section == "strengths" || section == "issues"):
			comments.WriteString(line + "\n")
		}
	}

	ev.Comments = strings.TrimSpace(comments.String())
	if len(ev.Suggestions) == 0 {
		ev.Suggestions = fallbackSuggestions(ev.Comments, ev.Score)
	}
	return ev
}

// parseScore handles "8", "8.5" and "8/10" style values, degrading to the
// neutral default on anything unreadable.
func parseScore(raw string) float64 {
	raw, _, _ = strings.Cut(raw, "/")
	raw = strings.TrimSpace(raw)
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return neutralScore
	}
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// trimListMarker strips leading "-", "•" or "1." style markers.
func trimListMarker(line string) (string, bool) {
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") ||
		(len(line) > 0 && line[0] >= '0' && line[0] <= '9') {
		return strings.TrimLeft(line, "-•0123456789. "), true
	}
	return "", false
}

// fallbackSuggestions extracts directive lines from the comments, or
// fabricates a generic one so feedback is always actionable.
func fallbackSuggestions(comments string, score float64) []string {
	if score >= 9.0 {
		return []string{"Continue with current approach"}
	}

	markers := []string{"should", "must", "need to", "improve", "fix", "change", "add", "remove"}
	var out []string
	for _, line := range strings.Split(comments, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				out = append(out, line)
				break
			}
		}
	}
	if len(out) == 0 {
		out = append(out, "Improve quality to reach the acceptance threshold")
	}
	return out
}

// parseVision reads "KEY: value" lines into a map with lowercase keys.
func parseVision(response string) map[string]string {
	vision := make(map[string]string)
	for _, line := range strings.Split(response, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			vision[key] = value
		}
	}
	return vision
}
