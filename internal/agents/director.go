package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xggarcia/Curt-IA/internal/genai"
	"github.com/xggarcia/Curt-IA/internal/voting"
)

// Director defines the creative vision, pre-filters drafts before the
// tribunal, and breaks deadlocks when refinement stalls.
type Director struct {
	gen                Generator
	emergencyThreshold float64
	log                *slog.Logger
}

// DeadlockDecision is the director's escape-valve verdict: either a
// complete replacement script, or a relaxed threshold under which the
// current draft is accepted.
type DeadlockDecision struct {
	Rewrite   bool
	Script    string  // replacement draft when Rewrite
	Threshold float64 // relaxed threshold when !Rewrite
}

// NewDirector creates the director agent.
func NewDirector(gen Generator, emergencyThreshold float64, logger *slog.Logger) *Director {
	if logger == nil {
		logger = slog.Default()
	}
	return &Director{gen: gen, emergencyThreshold: emergencyThreshold, log: logger}
}

const visionSystem = `You are an experienced film director defining the creative vision for a short film.
Given a film idea, you must define:
1. GENRE: The film genre (drama, comedy, sci-fi, horror, etc.)
2. TONE/MOOD: The emotional atmosphere (dark, lighthearted, mysterious, romantic, etc.)
3. PACING: The rhythm and tempo (fast-paced action, slow contemplative, varied)
4. CENTRAL MESSAGE: The core theme or message the film conveys

Be specific and clear. These parameters will guide all creative decisions.`

// DefineVision asks for genre, tone, pacing and message for the subject.
func (d *Director) DefineVision(ctx context.Context, subject string) (map[string]string, error) {
	prompt := fmt.Sprintf(`Film Idea: %s

Define the creative vision for this short film. Provide your response in this exact format:

GENRE: [genre]
TONE: [tone/mood]
PACING: [pacing description]
MESSAGE: [central message]`, subject)

	response, err := d.gen.Generate(ctx, genai.Request{
		Prompt:      prompt,
		System:      visionSystem,
		Temperature: 0.7,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("define vision: %w", err)
	}

	vision := parseVision(response)
	if len(vision) == 0 {
		return nil, fmt.Errorf("define vision: unparsable response")
	}
	return vision, nil
}

// Review pre-filters a draft against the vision before formal voting.
// Advisory only: the caller logs a rejection and proceeds to the tribunal
// regardless.
func (d *Director) Review(ctx context.Context, draft string, vision map[string]string) (bool, string, error) {
	system := fmt.Sprintf(`You are a film director reviewing a screenplay for your short film.

Your vision for this film is:
- Genre: %s
- Tone: %s
- Pacing: %s
- Message: %s

Review the submitted work and determine if it aligns with this vision.
If it does NOT align, provide specific, actionable feedback for improvement.
If it DOES align, approve it to proceed to the tribunal.`,
		visionField(vision, "genre"), visionField(vision, "tone"),
		visionField(vision, "pacing"), visionField(vision, "message"))

	prompt := fmt.Sprintf(`Review this screenplay:

%s

Does this align with the creative vision?

Provide your response in this format:
APPROVED: [YES/NO]
FEEDBACK: [detailed feedback with specific suggestions if not approved, or brief approval note if approved]`, draft)

	response, err := d.gen.Generate(ctx, genai.Request{
		Prompt:      prompt,
		System:      system,
		Temperature: 0.5,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return false, "", fmt.Errorf("director review: %w", err)
	}

	approved := false
	feedback := ""
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "APPROVED:") {
			approved = strings.Contains(strings.ToUpper(line), "YES")
		} else if strings.HasPrefix(line, "FEEDBACK:") {
			feedback = strings.TrimSpace(strings.TrimPrefix(line, "FEEDBACK:"))
		}
	}
	return approved, feedback, nil
}

// BreakDeadlock decides between a full rewrite and accepting the current
// draft under the relaxed threshold. Either branch terminates refinement.
func (d *Director) BreakDeadlock(ctx context.Context, draft string, history []voting.Evaluation, iterations int) (DeadlockDecision, error) {
	var feedback strings.Builder
	for _, ev := range history {
		fmt.Fprintf(&feedback, "[%s] Score: %.1f/10 - %s\n", ev.Evaluator, ev.Score, ev.Comments)
	}

	system := fmt.Sprintf(`You are a film director intervening to break a deadlock.

The screenplay has failed approval %d times. Here's all the feedback received:

%s

You have two options:
1. REWRITE the work yourself to address the core issues
2. LOWER the quality threshold to %.1f to allow it to pass

Decide which approach is best and execute it.`, iterations, feedback.String(), d.emergencyThreshold)

	prompt := fmt.Sprintf(`Current screenplay:

%s

DEADLOCK INTERVENTION NEEDED (%d failed iterations)

Choose your action:
ACTION: [REWRITE or LOWER_THRESHOLD]

If REWRITE: Provide the complete rewritten version below.
If LOWER_THRESHOLD: Explain why lowering the threshold is the best choice.`, draft, iterations)

	response, err := d.gen.Generate(ctx, genai.Request{
		Prompt:      prompt,
		System:      system,
		Temperature: 0.7,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return DeadlockDecision{}, fmt.Errorf("deadlock protocol: %w", err)
	}

	head := response
	if len(head) > 200 {
		head = head[:200]
	}
	if strings.Contains(strings.ToUpper(head), "REWRITE") {
		return DeadlockDecision{Rewrite: true, Script: rewriteBody(response)}, nil
	}
	return DeadlockDecision{Threshold: d.emergencyThreshold}, nil
}

// rewriteBody strips the ACTION line and returns the replacement script.
func rewriteBody(response string) string {
	idx := strings.Index(response, "ACTION:")
	if idx >= 0 {
		if nl := strings.Index(response[idx:], "\n"); nl >= 0 {
			return strings.TrimSpace(response[idx+nl:])
		}
	}
	return strings.TrimSpace(response)
}

func visionField(vision map[string]string, key string) string {
	if v, ok := vision[key]; ok && v != "" {
		return v
	}
	return "N/A"
}
