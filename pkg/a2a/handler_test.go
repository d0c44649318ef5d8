package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/msequeira/fitmesh/pkg/agent"
)

type fakeCapability struct {
	events []agent.Event
	err    error
	calls  int
}

func (f *fakeCapability) Name() string { return "fake" }

func (f *fakeCapability) Execute(_ context.Context, _ agent.Request) (<-chan agent.Event, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan agent.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func okCapability() *fakeCapability {
	return &fakeCapability{
		events: []agent.Event{
			{Type: agent.EventStatus, Message: "working on it"},
			{Type: agent.EventChunk, Chunk: "partial "},
			{Type: agent.EventResult, Result: &agent.Result{
				Text: "done",
				Data: map[string]any{"workout": map[string]any{"title": "Test"}},
			}},
		},
	}
}

func testHandler(t *testing.T, cap agent.Capability) *Handler {
	t.Helper()
	return NewHandler(HandlerConfig{
		Card: &AgentCard{
			Name:         "testagent",
			Description:  "A test agent",
			URL:          "http://localhost:8081",
			Version:      "1.0.0",
			Capabilities: Capabilities{Streaming: true},
			Skills:       []Skill{{ID: "test", Name: "Test", Description: "Test skill"}},
		},
		Capability: cap,
	})
}

func rpcBody(t *testing.T, method string, params any) *bytes.Buffer {
	t.Helper()
	rawParams, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	body, err := json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      "req-1",
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewBuffer(body)
}

func doRPC(t *testing.T, h *Handler, method string, params any) JSONRPCResponse {
	t.Helper()
	req := httptest.NewRequest("POST", "/", rpcBody(t, method, params))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp JSONRPCResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func sendParamsFor(id, text string) map[string]any {
	return map[string]any{
		"task": map[string]any{
			"id":      id,
			"message": Message{Role: "user", Parts: []Part{TextPart(text)}},
		},
	}
}

func TestSendReturnsSubmittedTaskID(t *testing.T) {
	h := testHandler(t, okCapability())
	resp := doRPC(t, h, MethodSend, sendParamsFor("task-123", "hello"))

	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	var result TaskResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.TaskID != "task-123" {
		t.Errorf("TaskID = %q, want %q", result.TaskID, "task-123")
	}
	if result.State != TaskStateCompleted {
		t.Errorf("State = %q, want %q", result.State, TaskStateCompleted)
	}
	if result.Result == nil || len(result.Result.Parts) == 0 {
		t.Fatal("expected a result message with parts")
	}
	if result.Result.Parts[0].Text != "done" {
		t.Errorf("result text = %q, want %q", result.Result.Parts[0].Text, "done")
	}
}

func TestGetAfterSendIsIdempotent(t *testing.T) {
	h := testHandler(t, okCapability())
	doRPC(t, h, MethodSend, sendParamsFor("task-abc", "hello"))

	for i := 0; i < 2; i++ {
		resp := doRPC(t, h, MethodGet, map[string]any{"taskId": "task-abc"})
		if resp.Error != nil {
			t.Fatalf("get %d: unexpected error: %+v", i, resp.Error)
		}
		var result TaskResult
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if result.State != TaskStateCompleted {
			t.Errorf("get %d: State = %q, want %q", i, result.State, TaskStateCompleted)
		}
		if result.Result == nil {
			t.Errorf("get %d: result missing", i)
		}
	}
}

func TestGetUnknownTask(t *testing.T) {
	h := testHandler(t, okCapability())
	resp := doRPC(t, h, MethodGet, map[string]any{"taskId": "never-seen"})

	if resp.Error == nil {
		t.Fatal("expected an error")
	}
	if resp.Error.Code != ErrCodeTaskNotFound {
		t.Errorf("code = %d, want %d", resp.Error.Code, ErrCodeTaskNotFound)
	}
}

func TestCancelUnknownTask(t *testing.T) {
	h := testHandler(t, okCapability())
	resp := doRPC(t, h, MethodCancel, map[string]any{"taskId": "never-seen"})

	if resp.Error == nil || resp.Error.Code != ErrCodeTaskNotFound {
		t.Fatalf("error = %+v, want code %d", resp.Error, ErrCodeTaskNotFound)
	}
}

func TestCancelMarksTaskCanceled(t *testing.T) {
	h := testHandler(t, okCapability())
	doRPC(t, h, MethodSend, sendParamsFor("task-c", "hello"))

	resp := doRPC(t, h, MethodCancel, map[string]any{"taskId": "task-c"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	var result TaskResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.State != TaskStateCanceled {
		t.Errorf("State = %q, want %q", result.State, TaskStateCanceled)
	}

	second := doRPC(t, h, MethodCancel, map[string]any{"taskId": "task-c"})
	if second.Error == nil || second.Error.Code != ErrCodeTaskCanceled {
		t.Fatalf("second cancel error = %+v, want code %d", second.Error, ErrCodeTaskCanceled)
	}
}

func TestUnknownMethod(t *testing.T) {
	h := testHandler(t, okCapability())
	resp := doRPC(t, h, "tasks/unknown", map[string]any{})

	if resp.Error == nil || resp.Error.Code != ErrCodeMethodNotFound {
		t.Fatalf("error = %+v, want code %d", resp.Error, ErrCodeMethodNotFound)
	}
}

func TestMalformedBody(t *testing.T) {
	h := testHandler(t, okCapability())
	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp JSONRPCResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeParse {
		t.Fatalf("error = %+v, want code %d", resp.Error, ErrCodeParse)
	}
}

func TestWrongJSONRPCVersion(t *testing.T) {
	h := testHandler(t, okCapability())
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"jsonrpc":"1.0","id":"x","method":"tasks/send"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp JSONRPCResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidReq {
		t.Fatalf("error = %+v, want code %d", resp.Error, ErrCodeInvalidReq)
	}
}

func TestInvalidParams(t *testing.T) {
	h := testHandler(t, okCapability())
	resp := doRPC(t, h, MethodSend, map[string]any{"task": map[string]any{"id": ""}})

	if resp.Error == nil || resp.Error.Code != ErrCodeInvalidParams {
		t.Fatalf("error = %+v, want code %d", resp.Error, ErrCodeInvalidParams)
	}
}

func TestCapabilityFailureMarksTaskFailed(t *testing.T) {
	cap := &fakeCapability{err: errors.New("boom")}
	h := testHandler(t, cap)
	resp := doRPC(t, h, MethodSend, sendParamsFor("task-f", "hello"))

	if resp.Error == nil || resp.Error.Code != ErrCodeInternal {
		t.Fatalf("error = %+v, want code %d", resp.Error, ErrCodeInternal)
	}
	data, ok := resp.Error.Data.(map[string]any)
	if !ok || data["message"] != "boom" {
		t.Errorf("error data = %v, want message %q", resp.Error.Data, "boom")
	}

	get := doRPC(t, h, MethodGet, map[string]any{"taskId": "task-f"})
	var result TaskResult
	if err := json.Unmarshal(get.Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.State != TaskStateFailed {
		t.Errorf("State = %q, want %q", result.State, TaskStateFailed)
	}
}

func TestErrorEventMarksTaskFailed(t *testing.T) {
	cap := &fakeCapability{events: []agent.Event{
		{Type: agent.EventStatus, Message: "starting"},
		{Type: agent.EventError, Err: errors.New("mid-flight failure")},
	}}
	h := testHandler(t, cap)
	resp := doRPC(t, h, MethodSend, sendParamsFor("task-e", "hello"))

	if resp.Error == nil || resp.Error.Code != ErrCodeInternal {
		t.Fatalf("error = %+v, want code %d", resp.Error, ErrCodeInternal)
	}
}

type sseEvent struct {
	name string
	data map[string]any
}

func collectSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var name string
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var data map[string]any
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err != nil {
				t.Fatalf("decode sse data: %v", err)
			}
			events = append(events, sseEvent{name: name, data: data})
		}
	}
	return events
}

func TestSendSubscribeEmitsExactlyOneTerminalEvent(t *testing.T) {
	h := testHandler(t, okCapability())
	req := httptest.NewRequest("POST", "/", rpcBody(t, MethodSendSubscribe, sendParamsFor("task-s", "hello")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	events := collectSSE(t, w.Body.String())
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}

	terminals := 0
	for _, ev := range events {
		if ev.name == "task-result" || ev.name == "task-error" {
			terminals++
		}
	}
	if terminals != 1 {
		t.Fatalf("terminal events = %d, want 1", terminals)
	}

	last := events[len(events)-1]
	if last.name != "task-result" {
		t.Errorf("last event = %q, want task-result", last.name)
	}
	if last.data["taskId"] != "task-s" {
		t.Errorf("taskId = %v, want task-s", last.data["taskId"])
	}
	if last.data["status"] != string(TaskStateCompleted) {
		t.Errorf("status = %v, want %q", last.data["status"], TaskStateCompleted)
	}
}

func TestSendSubscribeErrorIsTerminal(t *testing.T) {
	cap := &fakeCapability{events: []agent.Event{
		{Type: agent.EventStatus, Message: "starting"},
		{Type: agent.EventError, Err: fmt.Errorf("stream failure")},
	}}
	h := testHandler(t, cap)
	req := httptest.NewRequest("POST", "/", rpcBody(t, MethodSendSubscribe, sendParamsFor("task-se", "hello")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	events := collectSSE(t, w.Body.String())
	last := events[len(events)-1]
	if last.name != "task-error" {
		t.Fatalf("last event = %q, want task-error", last.name)
	}
	if last.data["error"] != "stream failure" {
		t.Errorf("error = %v, want %q", last.data["error"], "stream failure")
	}
	for _, ev := range events[:len(events)-1] {
		if ev.name == "task-result" || ev.name == "task-error" {
			t.Errorf("terminal event %q before the end of the stream", ev.name)
		}
	}
}

func TestSendSubscribeForwardsChunks(t *testing.T) {
	h := testHandler(t, okCapability())
	req := httptest.NewRequest("POST", "/", rpcBody(t, MethodSendSubscribe, sendParamsFor("task-ch", "hello")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	events := collectSSE(t, w.Body.String())
	found := false
	for _, ev := range events {
		if ev.name == "task-chunk" && ev.data["chunk"] == "partial " {
			found = true
		}
	}
	if !found {
		t.Error("expected a task-chunk event carrying the capability chunk")
	}
}

func TestAgentCardEndpoint(t *testing.T) {
	h := testHandler(t, okCapability())
	req := httptest.NewRequest("GET", "/.well-known/agent.json", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var card AgentCard
	if err := json.NewDecoder(w.Body).Decode(&card); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if card.Name != "testagent" {
		t.Errorf("Name = %q, want testagent", card.Name)
	}
	if !card.Capabilities.Streaming {
		t.Error("Streaming = false, want true")
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := testHandler(t, okCapability())
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}

func TestAuthRequiredForRPC(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Card:       &AgentCard{Name: "testagent"},
		Capability: okCapability(),
		AuthToken:  "secret",
	})

	req := httptest.NewRequest("POST", "/", rpcBody(t, MethodGet, map[string]any{"taskId": "x"}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest("POST", "/", rpcBody(t, MethodGet, map[string]any{"taskId": "x"}))
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want %d", w.Code, http.StatusOK)
	}

	// The card stays public.
	req = httptest.NewRequest("GET", "/.well-known/agent.json", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("card status = %d, want %d", w.Code, http.StatusOK)
	}
}
