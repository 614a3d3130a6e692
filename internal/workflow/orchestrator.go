package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/xggarcia/Curt-IA/internal/agents"
	"github.com/xggarcia/Curt-IA/internal/genai"
	"github.com/xggarcia/Curt-IA/internal/voting"
)

// VisionAgent is the governance collaborator: vision definition, advisory
// pre-filter and the deadlock escape valve.
type VisionAgent interface {
	DefineVision(ctx context.Context, subject string) (map[string]string, error)
	Review(ctx context.Context, draft string, vision map[string]string) (bool, string, error)
	BreakDeadlock(ctx context.Context, draft string, history []voting.Evaluation, iterations int) (agents.DeadlockDecision, error)
}

// DraftAgent produces and revises the artifact.
type DraftAgent interface {
	Draft(ctx context.Context, subject string, vision map[string]string) (string, error)
	Revise(ctx context.Context, current, feedback string, vision map[string]string) (string, error)
}

// Evaluator is one member of the tribunal. The orchestrator treats all
// evaluators uniformly.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, draft string) (voting.Evaluation, error)
}

// Notifier announces run milestones on an external channel. Advisory:
// failures are logged and swallowed.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Config carries the knobs the orchestrator reads. Passed in explicitly;
// there is no ambient global configuration.
type Config struct {
	MaxIterations      int
	DefaultThreshold   float64
	EmergencyThreshold float64
	OutputDir          string
}

// Deps are the required collaborators.
type Deps struct {
	Director VisionAgent
	Writer   DraftAgent
	Critics  []Evaluator
	Votes    *voting.Aggregator
	Store    *CheckpointStore
	Logger   *slog.Logger
}

// Orchestrator owns one run's State and drives it through the phases.
// Single logical thread of control: all collaborator calls are
// sequential and blocking.
type Orchestrator struct {
	cfg      Config
	director VisionAgent
	writer   DraftAgent
	critics  []Evaluator
	votes    *voting.Aggregator
	store    *CheckpointStore
	log      *slog.Logger

	state      State
	baseScript string
	notifier   Notifier
	sink       EventSink
	now        func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithBaseScript starts refinement from an existing draft instead of a
// blank page.
func WithBaseScript(script string) Option {
	return func(o *Orchestrator) { o.baseScript = script }
}

// WithNotifier attaches an external announcement channel.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithEventSink attaches a progress event sink.
func WithEventSink(s EventSink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithClock injects a deterministic clock (tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New starts a fresh run for the given subject.
func New(cfg Config, subject string, deps Deps, opts ...Option) (*Orchestrator, error) {
	o, err := build(cfg, deps, opts)
	if err != nil {
		return nil, err
	}
	if subject == "" {
		return nil, errors.New("workflow: subject description required")
	}
	o.state = State{
		RunID:   uuid.NewString(),
		Phase:   PhaseInit,
		Subject: subject,
	}
	return o, nil
}

// Load reconstructs a run from its checkpoint. Phases already passed are
// skipped entirely on Run.
func Load(cfg Config, deps Deps, opts ...Option) (*Orchestrator, error) {
	o, err := build(cfg, deps, opts)
	if err != nil {
		return nil, err
	}
	st, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	o.state = st
	o.log.Info("resuming from checkpoint",
		"run_id", st.RunID, "phase", st.Phase, "iteration", st.Iteration)
	return o, nil
}

func build(cfg Config, deps Deps, opts []Option) (*Orchestrator, error) {
	if deps.Director == nil || deps.Writer == nil || deps.Votes == nil || deps.Store == nil {
		return nil, errors.New("workflow: director, writer, votes and store are required")
	}
	if len(deps.Critics) == 0 {
		return nil, errors.New("workflow: at least one critic is required")
	}
	if cfg.MaxIterations < 1 {
		return nil, fmt.Errorf("workflow: maxIterations must be positive, got %d", cfg.MaxIterations)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		cfg:      cfg,
		director: deps.Director,
		writer:   deps.Writer,
		critics:  deps.Critics,
		votes:    deps.Votes,
		store:    deps.Store,
		log:      logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("workflow: create output dir: %w", err)
	}
	return o, nil
}

// State returns a copy of the current run state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run drives the state machine to completion and returns the final
// artifact. Resuming a completed run performs no external calls.
func (o *Orchestrator) Run(ctx context.Context) (string, error) {
	if o.state.Phase == PhaseRefinementComplete {
		o.log.Info("run already complete, returning stored artifact", "run_id", o.state.RunID)
		return o.state.Artifact, nil
	}

	if o.state.Phase == PhaseInit || o.state.Phase == PhasePreparation {
		if err := o.runPreparation(ctx); err != nil {
			return "", err
		}
	}

	if err := o.runRefinement(ctx); err != nil {
		return "", err
	}
	return o.state.Artifact, nil
}

// runPreparation obtains the creative vision and advances to REFINEMENT.
func (o *Orchestrator) runPreparation(ctx context.Context) error {
	o.transition(PhasePreparation)
	if err := o.persist(); err != nil {
		return err
	}

	o.log.Info("director defining creative vision", "subject", o.state.Subject)
	vision, err := o.director.DefineVision(ctx, o.state.Subject)
	if err != nil {
		return err
	}
	o.state.Vision = vision

	o.transition(PhaseRefinement)
	o.state.Iteration = 0
	return o.persist()
}

// runRefinement is the iterative core, bounded by MaxIterations with the
// deadlock protocol as the unconditional exit.
func (o *Orchestrator) runRefinement(ctx context.Context) error {
	// A draft persisted for the current iteration survives a crash
	// mid-evaluation; reuse it instead of regenerating. A checkpoint
	// where the iteration counter ran ahead of the draft marks a crash
	// between increment and draft: re-run that iteration without
	// incrementing again, so no iteration slot is burned.
	recovered := o.state.Iteration >= 1 &&
		o.state.DraftIteration == o.state.Iteration &&
		o.state.Artifact != ""
	pending := o.state.Iteration >= 1 &&
		o.state.DraftIteration < o.state.Iteration

	feedback := ""

	for {
		var draft string
		if recovered {
			recovered = false
			draft = o.state.Artifact
			o.log.Info("reusing persisted draft", "iteration", o.state.Iteration)
		} else {
			if pending {
				pending = false
				o.log.Info("redoing interrupted iteration", "iteration", o.state.Iteration)
			} else {
				o.state.Iteration++
				if err := o.persist(); err != nil {
					return err
				}
			}
			o.log.Info("--- iteration ---", "iteration", o.state.Iteration, "max", o.cfg.MaxIterations)

			var err error
			draft, err = o.produceDraft(ctx, feedback)
			if err != nil {
				return err
			}

			o.state.Artifact = draft
			o.state.DraftIteration = o.state.Iteration
			if err := o.persist(); err != nil {
				return err
			}
			o.writeArtifact(fmt.Sprintf("script_draft_%d.txt", o.state.Iteration), draft)
		}

		if err := o.advisoryReview(ctx, draft); err != nil {
			return err
		}

		evals, err := o.gatherEvaluations(ctx, draft)
		if err != nil {
			return err
		}
		// History rides in the checkpoint so a resumed run's deadlock
		// protocol still sees pre-crash rounds.
		o.state.History = append(o.state.History, evals...)
		if err := o.persist(); err != nil {
			return err
		}

		result, err := o.votes.CollectVotes(evals)
		if err != nil {
			return err
		}
		o.writeArtifact(fmt.Sprintf("feedback_iteration_%d.txt", o.state.Iteration), o.verdictReport(result))
		o.emit(EventVote, fmt.Sprintf("iteration %d: passed=%v avg=%.1f", o.state.Iteration, result.Passed, result.AverageScore))

		if result.Passed {
			o.log.Info("✅ draft approved", "iteration", o.state.Iteration, "avg_score", result.AverageScore)
			return o.finalize(ctx, draft, "approved by tribunal")
		}

		o.log.Info("draft rejected", "iteration", o.state.Iteration, "failing", result.FailingEvaluators)

		if o.state.Iteration >= o.cfg.MaxIterations {
			return o.breakDeadlock(ctx, draft)
		}

		// Exactly one prior round of feedback is visible per revision.
		feedback = result.Report
	}
}

// produceDraft writes the first version or a revision, depending on where
// the loop is.
func (o *Orchestrator) produceDraft(ctx context.Context, feedback string) (string, error) {
	if o.state.Iteration == 1 && o.state.Artifact == "" {
		if o.baseScript != "" {
			o.log.Info("refining supplied base script")
			return o.writer.Revise(ctx, o.baseScript, "", o.state.Vision)
		}
		o.log.Info("scriptwriter drafting from subject")
		return o.writer.Draft(ctx, o.state.Subject, o.state.Vision)
	}

	if feedback == "" {
		// Resumed mid-loop: recover the previous round's report from disk.
		feedback = o.readFeedbackFile(o.state.Iteration - 1)
	}
	o.log.Info("scriptwriter revising with latest feedback")
	return o.writer.Revise(ctx, o.state.Artifact, feedback, o.state.Vision)
}

// advisoryReview runs the director pre-filter. Rejection only logs a
// warning; the tribunal stays the single source of truth for pass/fail.
func (o *Orchestrator) advisoryReview(ctx context.Context, draft string) error {
	approved, feedback, err := o.director.Review(ctx, draft, o.state.Vision)
	if err != nil {
		return err
	}
	if !approved {
		o.log.Warn("director rejected draft, continuing to tribunal anyway", "feedback", feedback)
	}
	return nil
}

// gatherEvaluations consults every critic with the same draft. An
// unreachable critic becomes an automatic failing vote; resource-fatal
// generation errors abort the run with the checkpoint intact.
func (o *Orchestrator) gatherEvaluations(ctx context.Context, draft string) ([]voting.Evaluation, error) {
	evals := make([]voting.Evaluation, 0, len(o.critics))
	for _, critic := range o.critics {
		ev, err := critic.Evaluate(ctx, draft)
		if err != nil {
			if errors.Is(err, genai.ErrAllCredentialsExhausted) ||
				errors.Is(err, genai.ErrRetriesExhausted) ||
				errors.Is(err, context.Canceled) {
				return nil, err
			}
			o.log.Warn("critic unreachable, counting as failing vote", "critic", critic.Name(), "err", err)
			ev = voting.Evaluation{
				Evaluator:   critic.Name(),
				Score:       0,
				Comments:    fmt.Sprintf("evaluator unavailable: %v", err),
				Suggestions: []string{"Retry once the evaluator is reachable"},
			}
		}
		evals = append(evals, ev)
	}
	return evals, nil
}

// breakDeadlock applies the escape valve: a director rewrite or a relaxed
// threshold. Either way the run completes. Visited at most once.
func (o *Orchestrator) breakDeadlock(ctx context.Context, draft string) error {
	o.log.Warn("⚠️ iteration ceiling reached, executing deadlock protocol", "iterations", o.state.Iteration)
	o.emit(EventEscalation, fmt.Sprintf("deadlock after %d iterations", o.state.Iteration))
	o.notify(ctx, fmt.Sprintf("Curt-IA run %s: deadlock after %d iterations, director intervening", o.state.RunID, o.state.Iteration))

	decision, err := o.director.BreakDeadlock(ctx, draft, o.state.History, o.state.Iteration)
	if err != nil {
		return err
	}

	if decision.Rewrite {
		o.log.Info("director decided: complete rewrite")
		return o.finalize(ctx, decision.Script, "director rewrite")
	}

	o.log.Info("director decided: relax threshold", "threshold", decision.Threshold)
	if err := o.votes.SetThreshold(decision.Threshold); err != nil {
		return err
	}
	return o.finalize(ctx, draft, "accepted under relaxed threshold")
}

// finalize stores the final artifact and closes the run.
func (o *Orchestrator) finalize(ctx context.Context, script, reason string) error {
	o.state.Artifact = script
	o.transition(PhaseRefinementComplete)
	if err := o.persist(); err != nil {
		return err
	}
	o.writeArtifact("final_script.txt", script)
	o.emit(EventRunComplete, reason)
	o.notify(ctx, fmt.Sprintf("Curt-IA run %s complete (%s)", o.state.RunID, reason))
	o.log.Info("🎬 run complete", "run_id", o.state.RunID, "reason", reason)
	return nil
}

func (o *Orchestrator) transition(next Phase) {
	o.log.Info("phase transition", "from", o.state.Phase, "to", next)
	o.state.Phase = next
	o.emit(EventPhaseTransition, string(next))
}

func (o *Orchestrator) persist() error {
	o.state.UpdatedAt = o.now()
	return o.store.Save(o.state)
}

// writeArtifact saves an audit file to the output directory. Audit files
// are best-effort; only the checkpoint is load-bearing.
func (o *Orchestrator) writeArtifact(name, content string) {
	path := filepath.Join(o.cfg.OutputDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		o.log.Warn("failed to write audit file", "path", path, "err", err)
	}
}

func (o *Orchestrator) readFeedbackFile(iteration int) string {
	if iteration < 1 {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(o.cfg.OutputDir, fmt.Sprintf("feedback_iteration_%d.txt", iteration)))
	if err != nil {
		return ""
	}
	return string(data)
}

func (o *Orchestrator) verdictReport(result voting.Result) string {
	verdict := "REJECTED ✗"
	if result.Passed {
		verdict = "APPROVED ✓"
	}
	return fmt.Sprintf(`ITERATION %d - TRIBUNAL VERDICT
============================================================

RESULT: %s
AVERAGE SCORE: %.1f/10
THRESHOLD: %.1f/10

%s`, o.state.Iteration, verdict, result.AverageScore, o.votes.Threshold(), result.Report)
}

func (o *Orchestrator) notify(ctx context.Context, message string) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Notify(ctx, message); err != nil {
		o.log.Warn("notification failed", "err", err)
	}
}
