// Package agents holds the creative collaborators of a run: the director,
// the scriptwriter and the tribunal critics. Each one formats a prompt,
// calls the generation client and parses the free-text reply into a typed
// result.
package agents

import (
	"context"

	"github.com/xggarcia/Curt-IA/internal/genai"
)

// Generator is the single operation agents need from the generation layer.
// *genai.Client satisfies it; tests use scripted fakes.
type Generator interface {
	Generate(ctx context.Context, req genai.Request) (string, error)
}

const defaultMaxTokens = 8000
