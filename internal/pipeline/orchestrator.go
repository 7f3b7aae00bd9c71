package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"requify/internal/agents"
	"requify/internal/artifacts"
	"requify/internal/llm"
	"requify/internal/snapshot"
	"requify/internal/validation"
)

// Persister stores a finished expansion. Implementations live in the store
// package; tests substitute their own.
type Persister interface {
	SaveExpansion(ctx context.Context, res *Result) error
}

// Counts summarises how much each expansion agent produced.
type Counts struct {
	Actors    int `json:"actors"`
	UseCases  int `json:"useCases"`
	Entities  int `json:"entities"`
	Stories   int `json:"stories"`
	Endpoints int `json:"endpoints"`
	Tables    int `json:"tables"`
}

// Result is the outcome of one expansion run. AgentErrors lists expansion
// agents that failed; their slices stay empty rather than aborting the run.
type Result struct {
	ProjectID   string               `json:"projectId"`
	ProjectName string               `json:"projectName"`
	Sentence    string               `json:"sentence,omitempty"`
	Vision      string               `json:"vision"`
	Snapshot    snapshot.Snapshot    `json:"snapshot"`
	Score       int                  `json:"score"`
	Counts      Counts               `json:"counts"`
	Stories     []agents.UserStory   `json:"stories,omitempty"`
	Artifacts   []artifacts.Artifact `json:"artifacts,omitempty"`
	Report      *validation.Report   `json:"validation,omitempty"`
	AgentErrors map[string]string    `json:"agentErrors,omitempty"`
}

// Orchestrator drives the five expansion phases.
type Orchestrator struct {
	client        llm.Client
	validator     validation.Validator
	store         Persister
	progress      ProgressFunc
	fanOutTimeout time.Duration
	qualityFloor  int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProgress installs a callback for phase transitions.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithFanOutTimeout bounds the concurrent expansion phase.
func WithFanOutTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.fanOutTimeout = d
		}
	}
}

// WithQualityFloor sets the minimum validation score below which artifact
// generation is skipped.
func WithQualityFloor(score int) Option {
	return func(o *Orchestrator) { o.qualityFloor = score }
}

// NewOrchestrator wires the pipeline. validator and store may be nil; then
// validation and persistence are skipped.
func NewOrchestrator(client llm.Client, validator validation.Validator, store Persister, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:        client,
		validator:     validator,
		store:         store,
		fanOutTimeout: defaultFanOutTimeout,
		qualityFloor:  defaultQualityFloor,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) report(step Step, status StepStatus, detail string) {
	if o.progress != nil {
		o.progress(step, status, detail)
	}
}

// Run executes the full expansion for one input sentence. A non-nil error is
// always a *FatalError; partial agent failures are recorded in the result.
func (o *Orchestrator) Run(ctx context.Context, projectID, sentence string) (*Result, error) {
	// Phase 1: synthesis. Nothing downstream works without it.
	o.report(StepSynthesis, StatusRunning, "")
	syn, err := (agents.Synthesis{Client: o.client}).Run(ctx, agents.SynthesisIn{Sentence: sentence})
	if err != nil {
		o.report(StepSynthesis, StatusError, err.Error())
		return nil, NewFatalError(fmt.Errorf("synthesis: %w", err))
	}
	o.report(StepSynthesis, StatusComplete, syn.ProjectName)

	res := &Result{
		ProjectID:   projectID,
		ProjectName: syn.ProjectName,
		Sentence:    sentence,
		Vision:      syn.Vision,
		Snapshot:    syn.Analysis,
		AgentErrors: map[string]string{},
	}

	// Phase 2: concurrent expansion. Each agent failure is isolated; the
	// closures always return nil so one failure cannot cancel the rest.
	o.report(StepExpansion, StatusRunning, "")
	exp := o.fanOut(ctx, res)
	if len(res.AgentErrors) > 0 {
		o.report(StepExpansion, StatusComplete, fmt.Sprintf("%d of 5 agents failed", len(res.AgentErrors)))
	} else {
		o.report(StepExpansion, StatusComplete, "")
	}

	if exp.extraction != nil {
		res.Snapshot = snapshot.Merge(res.Snapshot, *exp.extraction)
	}
	if exp.stories != nil {
		res.Stories = exp.stories.Stories
	}
	res.Score = snapshot.Score(res.Snapshot)
	res.Counts = Counts{
		Actors:   len(res.Snapshot.Actors),
		UseCases: len(res.Snapshot.UseCases),
		Entities: len(res.Snapshot.DataEntities),
		Stories:  len(res.Stories),
	}
	if exp.apiSpec != nil {
		res.Counts.Endpoints = len(exp.apiSpec.Endpoints)
	}
	if exp.schema != nil {
		res.Counts.Tables = len(exp.schema.Tables)
	}

	// Phase 3: validation. Best effort; a broken validator degrades the
	// score instead of killing the run.
	o.runValidation(ctx, res)
	res.Score = finalScore(res.Score, res.Counts, res.Report)

	// Phase 4: artifact generation, gated on validation quality.
	o.renderArtifacts(res, exp)

	// Phase 5: persistence. The one downstream step that must not fail
	// silently.
	if o.store != nil {
		o.report(StepPersist, StatusRunning, "")
		if err := o.store.SaveExpansion(ctx, res); err != nil {
			o.report(StepPersist, StatusError, err.Error())
			return nil, NewFatalError(fmt.Errorf("persist: %w", err))
		}
		o.report(StepPersist, StatusComplete, "")
	} else {
		o.report(StepPersist, StatusSkipped, "no store configured")
	}

	return res, nil
}

type expansionOut struct {
	extraction *snapshot.Snapshot
	techStack  *agents.TechStackOut
	stories    *agents.StoriesOut
	schema     *agents.SchemaOut
	apiSpec    *agents.APISpecOut
}

func (o *Orchestrator) fanOut(ctx context.Context, res *Result) expansionOut {
	ctx, cancel := context.WithTimeout(ctx, o.fanOutTimeout)
	defer cancel()

	in := agents.ExtractionIn{Vision: res.Vision, Analysis: res.Snapshot}
	var out expansionOut

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	fail := func(task string, err error) {
		log.Printf("pipeline: %s agent failed: %v", task, err)
		mu.Lock()
		res.AgentErrors[task] = err.Error()
		o.report(StepExpansion, StatusError, task+": "+err.Error())
		mu.Unlock()
	}
	g.Go(func() error {
		v, err := (agents.DeepExtraction{Client: o.client}).Run(gctx, in)
		if err != nil {
			fail(agents.TaskDeepExtraction, err)
			return nil
		}
		out.extraction = &v
		return nil
	})
	g.Go(func() error {
		v, err := (agents.TechStack{Client: o.client}).Run(gctx, in)
		if err != nil {
			fail(agents.TaskTechStack, err)
			return nil
		}
		out.techStack = &v
		return nil
	})
	g.Go(func() error {
		v, err := (agents.Stories{Client: o.client}).Run(gctx, in)
		if err != nil {
			fail(agents.TaskUserStories, err)
			return nil
		}
		out.stories = &v
		return nil
	})
	g.Go(func() error {
		v, err := (agents.Schema{Client: o.client}).Run(gctx, in)
		if err != nil {
			fail(agents.TaskDataSchema, err)
			return nil
		}
		out.schema = &v
		return nil
	})
	g.Go(func() error {
		v, err := (agents.APISpec{Client: o.client}).Run(gctx, in)
		if err != nil {
			fail(agents.TaskAPISpec, err)
			return nil
		}
		out.apiSpec = &v
		return nil
	})
	_ = g.Wait()
	return out
}

// finalScore tops up the data-completeness score with capped bonuses for
// what the expansion agents produced. Bonuses only add, so an agent failure
// never drops the score below the snapshot baseline.
func finalScore(base int, c Counts, report *validation.Report) int {
	s := base
	switch {
	case c.Stories >= 5:
		s += 4
	case c.Stories >= 1:
		s += 2
	}
	if c.Endpoints >= 1 {
		s += 2
	}
	if c.Tables >= 1 {
		s += 2
	}
	if report != nil && report.OverallScore >= 80 {
		s += 5
	}
	if s > 100 {
		s = 100
	}
	return s
}

func (o *Orchestrator) runValidation(ctx context.Context, res *Result) {
	if o.validator == nil {
		o.report(StepValidate, StatusSkipped, "no validator configured")
		res.Report = &validation.Report{OverallScore: res.Score}
		return
	}
	o.report(StepValidate, StatusRunning, "")
	report, err := func() (r validation.Report, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("validator panicked: %v", rec)
			}
		}()
		return o.validator.Validate(ctx, validation.ProjectRecord{
			Name:     res.ProjectName,
			Vision:   res.Vision,
			Snapshot: res.Snapshot,
		})
	}()
	if err != nil {
		log.Printf("pipeline: validation failed: %v", err)
		res.Report = &validation.Report{
			OverallScore: 0,
			Warnings:     []string{"validation could not be completed"},
		}
		o.report(StepValidate, StatusError, err.Error())
		return
	}
	res.Report = &report
	o.report(StepValidate, StatusComplete, fmt.Sprintf("score %d", report.OverallScore))
}

func (o *Orchestrator) renderArtifacts(res *Result, exp expansionOut) {
	if res.Report != nil && res.Report.OverallScore < o.qualityFloor {
		o.report(StepArtifacts, StatusSkipped,
			fmt.Sprintf("quality %d below floor %d", res.Report.OverallScore, o.qualityFloor))
		return
	}
	o.report(StepArtifacts, StatusRunning, "")
	res.Artifacts = artifacts.RenderReady(res.ProjectName, res.Snapshot)
	if exp.schema != nil {
		res.Artifacts = append(res.Artifacts, artifacts.RenderERDiagram(res.ProjectName, *exp.schema))
	}
	if exp.stories != nil {
		res.Artifacts = append(res.Artifacts, artifacts.RenderStories(res.ProjectName, *exp.stories))
	}
	if exp.apiSpec != nil {
		res.Artifacts = append(res.Artifacts, artifacts.RenderAPISpec(res.ProjectName, *exp.apiSpec))
	}
	if exp.techStack != nil {
		res.Artifacts = append(res.Artifacts, artifacts.RenderTechStack(res.ProjectName, *exp.techStack))
	}
	o.report(StepArtifacts, StatusComplete, fmt.Sprintf("%d artifacts", len(res.Artifacts)))
}
