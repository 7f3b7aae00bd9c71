package pipeline

import (
	"context"
	"errors"
	"testing"

	"requify/internal/agents"
	"requify/internal/llm"
	"requify/internal/snapshot"
	"requify/internal/validation"
)

type memPersister struct {
	saved []*Result
	err   error
}

func (m *memPersister) SaveExpansion(_ context.Context, res *Result) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, res)
	return nil
}

type fixedValidator struct {
	report validation.Report
	err    error
}

func (v fixedValidator) Validate(context.Context, validation.ProjectRecord) (validation.Report, error) {
	return v.report, v.err
}

func richSynthesis() agents.SynthesisOut {
	s := snapshot.Snapshot{}
	s.Actors = []snapshot.Actor{
		{Name: "Shopper", Classification: "primary", Goals: []string{"buy"}, PainPoints: []string{"slow checkout"}},
		{Name: "Admin", Classification: "primary", Goals: []string{"manage catalog"}},
	}
	s.UseCases = []snapshot.UseCase{
		{ID: "UC-1", Actor: "Shopper", Trigger: "opens catalog", Outcome: "browse"},
		{ID: "UC-2", Actor: "Shopper", Trigger: "submits cart", Outcome: "order"},
		{ID: "UC-3", Actor: "Admin", Trigger: "edits product", Outcome: "catalog updated"},
	}
	s.Boundaries = snapshot.Boundaries{
		Internal: []string{"catalog"}, External: []string{"Stripe"},
		InScope: []string{"checkout"}, OutOfScope: []string{"logistics"},
	}
	s.DataEntities = []snapshot.DataEntity{
		{Name: "Product", Attributes: []string{"sku", "price"}},
		{Name: "Order", Attributes: []string{"total"}},
	}
	s.ProblemStatement = &snapshot.ProblemStatement{
		Summary: "buying online is slow", Context: "small retailers",
		Impact: "lost sales", Goals: []string{"faster checkout"},
	}
	s.GoalsMetrics = []snapshot.GoalMetric{
		{Goal: "conversion", Metric: "checkout rate", Target: "+10%"},
		{Goal: "speed", Metric: "p95 latency", Target: "<300ms"},
	}
	s.NFRs = []snapshot.NonFunctionalRequirement{
		{Category: "performance", Requirement: "fast pages"},
		{Category: "security", Requirement: "PCI compliance"},
	}
	return agents.SynthesisOut{ProjectName: "Shop", Vision: "frictionless buying", Analysis: s}
}

func scriptAll(fake *llm.FakeClient) {
	syn := richSynthesis()
	fake.Script(agents.TaskSynthesis, syn)
	fake.Script(agents.TaskDeepExtraction, syn.Analysis)
	fake.Script(agents.TaskTechStack, agents.TechStackOut{
		Backend: []agents.Recommendation{{Name: "Go", Reason: "simple deploys"}},
	})
	fake.Script(agents.TaskUserStories, agents.StoriesOut{Stories: []agents.UserStory{
		{ID: "ST-1", Actor: "Shopper", Want: "one-click checkout", Benefit: "save time"},
	}})
	fake.Script(agents.TaskDataSchema, agents.SchemaOut{Tables: []agents.Table{
		{Name: "orders", Columns: []agents.Column{{Name: "id", Type: "uuid"}}},
	}})
	fake.Script(agents.TaskAPISpec, agents.APISpecOut{Endpoints: []agents.Endpoint{
		{Method: "POST", Path: "/orders", Summary: "place order"},
	}})
}

func TestRunFullPipeline(t *testing.T) {
	fake := llm.NewFakeClient()
	scriptAll(fake)
	store := &memPersister{}
	o := NewOrchestrator(fake, validation.RuleValidator{}, store)

	res, err := o.Run(context.Background(), "p1", "an online shop")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ProjectName != "Shop" {
		t.Fatalf("ProjectName = %q, want Shop", res.ProjectName)
	}
	if len(res.AgentErrors) != 0 {
		t.Fatalf("AgentErrors = %v, want none", res.AgentErrors)
	}
	if res.Counts.Stories != 1 || res.Counts.Tables != 1 || res.Counts.Endpoints != 1 {
		t.Fatalf("counts = %+v", res.Counts)
	}
	if res.Counts.Actors != 2 || res.Counts.UseCases != 3 {
		t.Fatalf("snapshot counts = %+v", res.Counts)
	}
	if len(res.Artifacts) == 0 {
		t.Fatalf("expected artifacts for a healthy project")
	}
	if len(store.saved) != 1 {
		t.Fatalf("persisted %d results, want 1", len(store.saved))
	}
}

func TestFanOutIsolatesAgentFailures(t *testing.T) {
	fake := llm.NewFakeClient()
	scriptAll(fake)
	fake.Fail(agents.TaskTechStack, errors.New("quota exceeded"))
	fake.Fail(agents.TaskAPISpec, errors.New("malformed response"))
	store := &memPersister{}
	var agentFailures []string
	o := NewOrchestrator(fake, validation.RuleValidator{}, store,
		WithProgress(func(step Step, status StepStatus, detail string) {
			if step == StepExpansion && status == StatusError {
				agentFailures = append(agentFailures, detail)
			}
		}))

	res, err := o.Run(context.Background(), "p1", "an online shop")
	if err != nil {
		t.Fatalf("Run() error = %v, want partial success", err)
	}
	if len(res.AgentErrors) != 2 {
		t.Fatalf("AgentErrors = %v, want exactly 2", res.AgentErrors)
	}
	if len(agentFailures) != 2 {
		t.Fatalf("error events = %v, want one per failed agent", agentFailures)
	}
	if _, ok := res.AgentErrors[agents.TaskTechStack]; !ok {
		t.Fatalf("tech stack failure not recorded: %v", res.AgentErrors)
	}
	if _, ok := res.AgentErrors[agents.TaskAPISpec]; !ok {
		t.Fatalf("api spec failure not recorded: %v", res.AgentErrors)
	}
	if res.Counts.Stories != 1 || res.Counts.Tables != 1 {
		t.Fatalf("surviving agents lost their output: %+v", res.Counts)
	}
	if res.Counts.Endpoints != 0 {
		t.Fatalf("failed agent produced output: %+v", res.Counts)
	}
	if len(store.saved) != 1 {
		t.Fatalf("partial run should still persist, saved = %d", len(store.saved))
	}
}

func TestSynthesisFailureAbortsRun(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Fail(agents.TaskSynthesis, errors.New("model unavailable"))
	store := &memPersister{}
	o := NewOrchestrator(fake, validation.RuleValidator{}, store)

	_, err := o.Run(context.Background(), "p1", "an online shop")
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("Run() error = %v, want *FatalError", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("aborted run must not persist, saved = %d", len(store.saved))
	}
}

func TestPersistenceFailureIsFatal(t *testing.T) {
	fake := llm.NewFakeClient()
	scriptAll(fake)
	store := &memPersister{err: errors.New("disk full")}
	o := NewOrchestrator(fake, validation.RuleValidator{}, store)

	_, err := o.Run(context.Background(), "p1", "an online shop")
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("Run() error = %v, want *FatalError", err)
	}
}

func TestValidationFailureDegradesRun(t *testing.T) {
	fake := llm.NewFakeClient()
	scriptAll(fake)
	store := &memPersister{}
	o := NewOrchestrator(fake, fixedValidator{err: errors.New("rules service down")}, store)

	res, err := o.Run(context.Background(), "p1", "an online shop")
	if err != nil {
		t.Fatalf("Run() error = %v, validation must not abort", err)
	}
	if res.Report == nil || res.Report.OverallScore != 0 {
		t.Fatalf("report = %+v, want zero score fallback", res.Report)
	}
	if len(res.Report.Warnings) == 0 {
		t.Fatalf("degraded run should carry a warning")
	}
	if len(res.Artifacts) != 0 {
		t.Fatalf("artifacts generated despite quality floor: %d", len(res.Artifacts))
	}
	if len(store.saved) != 1 {
		t.Fatalf("degraded run should still persist, saved = %d", len(store.saved))
	}
}

func TestQualityFloorSkipsArtifacts(t *testing.T) {
	fake := llm.NewFakeClient()
	scriptAll(fake)
	var skipped bool
	o := NewOrchestrator(fake,
		fixedValidator{report: validation.Report{OverallScore: 25}},
		&memPersister{},
		WithProgress(func(step Step, status StepStatus, _ string) {
			if step == StepArtifacts && status == StatusSkipped {
				skipped = true
			}
		}))

	res, err := o.Run(context.Background(), "p1", "an online shop")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !skipped {
		t.Fatalf("artifact step should report skipped below the floor")
	}
	if len(res.Artifacts) != 0 {
		t.Fatalf("artifacts = %d, want 0", len(res.Artifacts))
	}
}

func TestNilStoreSkipsPersistence(t *testing.T) {
	fake := llm.NewFakeClient()
	scriptAll(fake)
	var persistStatus StepStatus
	o := NewOrchestrator(fake, validation.RuleValidator{}, nil,
		WithProgress(func(step Step, status StepStatus, _ string) {
			if step == StepPersist {
				persistStatus = status
			}
		}))
	if _, err := o.Run(context.Background(), "p1", "an online shop"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if persistStatus != StatusSkipped {
		t.Fatalf("persist status = %q, want skipped", persistStatus)
	}
}

func TestFinalScoreNeverDropsBelowBaseline(t *testing.T) {
	if got := finalScore(60, Counts{}, &validation.Report{OverallScore: 0}); got < 60 {
		t.Fatalf("finalScore = %d, want >= 60", got)
	}
	got := finalScore(60, Counts{Stories: 6, Endpoints: 4, Tables: 3}, &validation.Report{OverallScore: 90})
	if got != 73 {
		t.Fatalf("finalScore with all bonuses = %d, want 73", got)
	}
	if got := finalScore(98, Counts{Stories: 6, Endpoints: 4, Tables: 3}, nil); got != 100 {
		t.Fatalf("finalScore should clamp at 100, got %d", got)
	}
}
