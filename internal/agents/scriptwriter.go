package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xggarcia/Curt-IA/internal/genai"
)

// Scriptwriter produces the initial draft and feedback-driven revisions.
type Scriptwriter struct {
	gen Generator
	log *slog.Logger
}

// NewScriptwriter creates the scriptwriter agent.
func NewScriptwriter(gen Generator, logger *slog.Logger) *Scriptwriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scriptwriter{gen: gen, log: logger}
}

const scriptwriterSystem = `You are a professional screenwriter for short films.
Write in standard screenplay format: scene headings (INT./EXT.), action lines, character names, dialogue.
Keep the script producible as a short film and faithful to the creative vision you are given.`

// Draft writes the first version of the screenplay from the subject.
func (w *Scriptwriter) Draft(ctx context.Context, subject string, vision map[string]string) (string, error) {
	prompt := fmt.Sprintf(`%sWrite a complete short-film screenplay for this idea:

%s

Output only the screenplay.`, visionBlock(vision), subject)

	script, err := w.gen.Generate(ctx, genai.Request{
		Prompt:      prompt,
		System:      scriptwriterSystem,
		Temperature: 0.7,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("draft script: %w", err)
	}
	return strings.TrimSpace(script), nil
}

// Revise rewrites the current draft using the most recent round of
// tribunal feedback. Prior structural decisions must be preserved; only
// the given feedback drives changes.
func (w *Scriptwriter) Revise(ctx context.Context, current, feedback string, vision map[string]string) (string, error) {
	prompt := fmt.Sprintf(`%sRevise the screenplay below. Preserve its structure, characters and scene order; address only the feedback.

FEEDBACK FROM THE LAST REVIEW ROUND:
%s

CURRENT SCREENPLAY:
%s

Output only the revised screenplay.`, visionBlock(vision), feedback, current)

	script, err := w.gen.Generate(ctx, genai.Request{
		Prompt:      prompt,
		System:      scriptwriterSystem,
		Temperature: 0.7,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("revise script: %w", err)
	}
	return strings.TrimSpace(script), nil
}

func visionBlock(vision map[string]string) string {
	if len(vision) == 0 {
		return ""
	}
	return fmt.Sprintf(`Creative vision:
- Genre: %s
- Tone: %s
- Pacing: %s
- Message: %s

`, visionField(vision, "genre"), visionField(vision, "tone"),
		visionField(vision, "pacing"), visionField(vision, "message"))
}
