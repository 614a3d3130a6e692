package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xggarcia/Curt-IA/internal/genai"
	"github.com/xggarcia/Curt-IA/internal/voting"
)

// Critic evaluates a draft against one quality axis and returns a scored
// evaluation. All critics share the same request/parse mechanics and
// differ only in persona.
type Critic struct {
	name   string
	system string
	gen    Generator
	log    *slog.Logger
}

// Name identifies the critic in voting results.
func (c *Critic) Name() string {
	return c.name
}

// Evaluate scores the draft. The reply is parsed leniently: a malformed
// score degrades to the neutral default instead of failing.
func (c *Critic) Evaluate(ctx context.Context, draft string) (voting.Evaluation, error) {
	prompt := fmt.Sprintf(`Review this screenplay:

%s

Provide your evaluation in this format:
SCORE: [0-10]
STRENGTHS: [what works well]
ISSUES: [specific problems, if any]
SUGGESTIONS: [actionable improvements]`, draft)

	response, err := c.gen.Generate(ctx, genai.Request{
		Prompt:      prompt,
		System:      c.system,
		Temperature: 0.3,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return voting.Evaluation{}, fmt.Errorf("%s: %w", c.name, err)
	}

	ev := parseEvaluation(c.name, response)
	c.log.Info("critic evaluated draft", "critic", c.name, "score", ev.Score)
	return ev, nil
}

func newCritic(name, system string, gen Generator, logger *slog.Logger) *Critic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Critic{name: name, system: system, gen: gen, log: logger}
}

// NewTechnicalCritic reviews production feasibility.
func NewTechnicalCritic(gen Generator, logger *slog.Logger) *Critic {
	return newCritic("TechnicalCritic", `You are a technical director reviewing a screenplay for production feasibility.

Evaluate:
1. Visual clarity - Are scenes clearly described and visualizable?
2. Technical feasibility - Can this be produced as a short film?
3. Scene complexity - Are there too many complex effects or actions?
4. Continuity - Are there clear scene transitions?

Score 0-10 where:
- 9-10: Excellent, highly producible
- 7-8: Good, minor technical concerns
- 5-6: Problematic areas need revision
- 0-4: Major technical issues`, gen, logger)
}

// NewNarrativeCritic reviews story structure and dramatic craft.
func NewNarrativeCritic(gen Generator, logger *slog.Logger) *Critic {
	return newCritic("NarrativeCritic", `You are a story editor reviewing a screenplay for narrative quality.

Evaluate:
1. Structure - Does the story have a clear setup, escalation and resolution?
2. Character - Are motivations clear and consistent?
3. Dialogue - Does it sound natural and carry subtext?
4. Theme - Does the story deliver its central message?

Score 0-10 where:
- 9-10: Excellent, compelling storytelling
- 7-8: Good, minor narrative weaknesses
- 5-6: Noticeable structural problems
- 0-4: Major narrative issues`, gen, logger)
}

// NewAudienceCritic reviews emotional impact and watchability.
func NewAudienceCritic(gen Generator, logger *slog.Logger) *Critic {
	return newCritic("AudienceCritic", `You are a test-audience analyst reviewing a screenplay for viewer impact.

Evaluate:
1. Hook - Does the opening grab attention?
2. Engagement - Does the story hold interest throughout?
3. Emotional payoff - Does the ending land?
4. Clarity - Can a first-time viewer follow everything?

Score 0-10 where:
- 9-10: Excellent, memorable viewing
- 7-8: Good, engaging with small lulls
- 5-6: Loses the audience in places
- 0-4: Fails to engage`, gen, logger)
}
