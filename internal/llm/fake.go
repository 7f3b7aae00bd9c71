package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// FakeClient returns scripted JSON payloads per task tag for offline use and
// tests. Tasks without a scripted response or error return "{}".
type FakeClient struct {
	mu        sync.Mutex
	responses map[string]json.RawMessage
	errs      map[string]error
	calls     []string
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		responses: make(map[string]json.RawMessage),
		errs:      make(map[string]error),
	}
}

// Script sets the response for a task. v is marshaled once, up front.
func (f *FakeClient) Script(task string, v any) *FakeClient {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("llm: scripting %s: %v", task, err))
	}
	f.mu.Lock()
	f.responses[task] = b
	f.mu.Unlock()
	return f
}

// Fail makes the task return err.
func (f *FakeClient) Fail(task string, err error) *FakeClient {
	f.mu.Lock()
	f.errs[task] = err
	f.mu.Unlock()
	return f
}

// Calls lists the task tags seen so far, in call order.
func (f *FakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, _ string, _ any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	task := TaskFrom(ctx)
	f.mu.Lock()
	f.calls = append(f.calls, task)
	err := f.errs[task]
	resp, ok := f.responses[task]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return json.RawMessage("{}"), nil
	}
	return resp, nil
}
