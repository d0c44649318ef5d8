package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/msequeira/fitmesh/pkg/agent"
	"github.com/msequeira/fitmesh/pkg/audit"
	"github.com/msequeira/fitmesh/pkg/telemetry"
)

// Handler is the A2A dispatcher for one agent: it owns the task store,
// routes JSON-RPC methods to the agent capability, and serves the agent
// card and health endpoints.
type Handler struct {
	router     chi.Router
	card       *AgentCard
	store      *TaskStore
	capability agent.Capability
	auditLog   *audit.Logger
	logger     *slog.Logger
	authToken  string
}

type HandlerConfig struct {
	Card       *AgentCard
	Capability agent.Capability
	AuditLog   *audit.Logger
	Logger     *slog.Logger
	AuthToken  string
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := &Handler{
		card:       cfg.Card,
		store:      NewTaskStore(),
		capability: cfg.Capability,
		auditLog:   cfg.AuditLog,
		logger:     cfg.Logger,
		authToken:  cfg.AuthToken,
	}
	h.buildRouter()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Store exposes the task store for inspection commands.
func (h *Handler) Store() *TaskStore { return h.store }

func (h *Handler) buildRouter() {
	r := chi.NewRouter()
	r.Get("/.well-known/agent.json", h.handleAgentCard)
	r.Get("/health", h.handleHealth)
	r.Get("/ping", h.handlePing)
	r.Get("/", h.handleRoot)

	r.Group(func(r chi.Router) {
		if h.authToken != "" {
			r.Use(h.authMiddleware)
		}
		r.Post("/", h.handleJSONRPC)
	})
	h.router = r
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header || token != h.authToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.card)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"agent":  h.card.Name,
		"status": "healthy",
	})
}

type sendParams struct {
	Task struct {
		ID      string  `json:"id"`
		Message Message `json:"message"`
	} `json:"task"`
}

type taskIDParams struct {
	TaskID string `json:"taskId"`
}

func (h *Handler) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeRPC(w, "", "error", NewJSONRPCError(nil, ErrCodeParse, "parse error"))
		return
	}
	if req.JSONRPC != jsonrpcVersion {
		h.writeRPC(w, req.Method, "error", NewJSONRPCError(req.ID, ErrCodeInvalidReq, "invalid jsonrpc version"))
		return
	}

	start := time.Now()
	defer func() {
		telemetry.Metrics.RPCDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	}()

	switch parseMethod(req.Method) {
	case methodSend:
		h.rpcSend(w, r, req)
	case methodGet:
		h.rpcGetTask(w, req)
	case methodCancel:
		h.rpcCancelTask(w, r, req)
	case methodSendSubscribe:
		h.rpcSendSubscribe(w, r, req)
	default:
		h.writeRPC(w, req.Method, "error",
			NewJSONRPCError(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method)))
	}
}

func (h *Handler) rpcSend(w http.ResponseWriter, r *http.Request, req JSONRPCRequest) {
	var params sendParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Task.ID == "" {
		h.writeRPC(w, req.Method, "error", NewJSONRPCError(req.ID, ErrCodeInvalidParams, "invalid params"))
		return
	}

	task := h.acceptTask(r.Context(), params.Task.ID, params.Task.Message)

	events, err := h.runCapability(r.Context(), task)
	if err != nil {
		h.failTask(r.Context(), task.ID, err)
		h.writeRPC(w, req.Method, "error",
			NewJSONRPCErrorData(req.ID, ErrCodeInternal, "task execution failed",
				map[string]string{"message": err.Error()}))
		return
	}

	result, err := h.drainEvents(events, nil)
	if err != nil {
		h.failTask(r.Context(), task.ID, err)
		h.writeRPC(w, req.Method, "error",
			NewJSONRPCErrorData(req.ID, ErrCodeInternal, "task execution failed",
				map[string]string{"message": err.Error()}))
		return
	}

	h.completeTask(r.Context(), task.ID, *result)
	h.writeRPC(w, req.Method, "ok", NewJSONRPCResponse(req.ID, TaskResult{
		TaskID: task.ID,
		State:  TaskStateCompleted,
		Result: result,
	}))
}

func (h *Handler) rpcGetTask(w http.ResponseWriter, req JSONRPCRequest) {
	var params taskIDParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.TaskID == "" {
		h.writeRPC(w, req.Method, "error", NewJSONRPCError(req.ID, ErrCodeInvalidParams, "invalid params"))
		return
	}

	task, err := h.store.Get(params.TaskID)
	if err != nil {
		h.writeRPC(w, req.Method, "error", NewJSONRPCError(req.ID, ErrCodeTaskNotFound, err.Error()))
		return
	}
	h.writeRPC(w, req.Method, "ok", NewJSONRPCResponse(req.ID, TaskResult{
		TaskID: task.ID,
		State:  task.State,
		Result: task.Result,
	}))
}

func (h *Handler) rpcCancelTask(w http.ResponseWriter, r *http.Request, req JSONRPCRequest) {
	var params taskIDParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.TaskID == "" {
		h.writeRPC(w, req.Method, "error", NewJSONRPCError(req.ID, ErrCodeInvalidParams, "invalid params"))
		return
	}

	task, err := h.store.Get(params.TaskID)
	if err != nil {
		h.writeRPC(w, req.Method, "error", NewJSONRPCError(req.ID, ErrCodeTaskNotFound, err.Error()))
		return
	}
	if task.State == TaskStateCanceled {
		h.writeRPC(w, req.Method, "error",
			NewJSONRPCError(req.ID, ErrCodeTaskCanceled, fmt.Sprintf("task %q already canceled", task.ID)))
		return
	}

	// Bookkeeping only: an in-flight execution for this id is not
	// interrupted and may still overwrite the canceled status with its own
	// terminal status.
	if err := h.store.SetState(params.TaskID, TaskStateCanceled); err != nil {
		h.writeRPC(w, req.Method, "error", NewJSONRPCError(req.ID, ErrCodeInternal, err.Error()))
		return
	}
	telemetry.Metrics.TasksTotal.WithLabelValues(string(TaskStateCanceled)).Inc()
	h.auditLogEvent(r.Context(), audit.EventTaskCancel, task.ID)
	h.writeRPC(w, req.Method, "ok", NewJSONRPCResponse(req.ID, TaskResult{
		TaskID: task.ID,
		State:  TaskStateCanceled,
	}))
}

func (h *Handler) rpcSendSubscribe(w http.ResponseWriter, r *http.Request, req JSONRPCRequest) {
	var params sendParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Task.ID == "" {
		h.writeRPC(w, req.Method, "error", NewJSONRPCError(req.ID, ErrCodeInvalidParams, "invalid params"))
		return
	}

	task := h.acceptTask(r.Context(), params.Task.ID, params.Task.Message)

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	telemetry.Metrics.ActiveStreams.Inc()
	defer telemetry.Metrics.ActiveStreams.Dec()

	events, err := h.runCapability(r.Context(), task)
	if err != nil {
		h.failTask(r.Context(), task.ID, err)
		h.writeSSE(w, flusher, canFlush, "task-error", map[string]any{
			"taskId": task.ID,
			"status": TaskStateFailed,
			"error":  err.Error(),
		})
		telemetry.Metrics.RPCRequests.WithLabelValues(req.Method, "error").Inc()
		return
	}

	h.writeSSE(w, flusher, canFlush, "task-status", map[string]any{
		"taskId": task.ID,
		"status": TaskStateWorking,
	})

	emit := func(ev agent.Event) {
		switch ev.Type {
		case agent.EventStatus:
			h.writeSSE(w, flusher, canFlush, "task-status", map[string]any{
				"taskId":  task.ID,
				"status":  TaskStateWorking,
				"message": ev.Message,
			})
		case agent.EventChunk:
			h.writeSSE(w, flusher, canFlush, "task-chunk", map[string]any{
				"taskId": task.ID,
				"chunk":  ev.Chunk,
			})
		}
	}

	result, err := h.drainEvents(events, emit)
	if err != nil {
		h.failTask(r.Context(), task.ID, err)
		h.writeSSE(w, flusher, canFlush, "task-error", map[string]any{
			"taskId": task.ID,
			"status": TaskStateFailed,
			"error":  err.Error(),
		})
		telemetry.Metrics.RPCRequests.WithLabelValues(req.Method, "error").Inc()
		return
	}

	h.completeTask(r.Context(), task.ID, *result)
	h.writeSSE(w, flusher, canFlush, "task-result", map[string]any{
		"taskId": task.ID,
		"status": TaskStateCompleted,
		"result": result,
	})
	telemetry.Metrics.RPCRequests.WithLabelValues(req.Method, "ok").Inc()
}

// acceptTask stores the task and moves it straight to working.
func (h *Handler) acceptTask(ctx context.Context, taskID string, msg Message) *Task {
	if existing, err := h.store.Get(taskID); err == nil {
		// Re-submission of a known id re-runs the capability on the same
		// entry rather than minting a duplicate.
		_ = h.store.SetState(taskID, TaskStateWorking)
		existing.State = TaskStateWorking
		return existing
	}
	task := &Task{ID: taskID, Message: msg, State: TaskStatePending}
	h.store.Create(task)
	h.auditLogEvent(ctx, audit.EventTaskNew, taskID)
	_ = h.store.SetState(taskID, TaskStateWorking)
	return task
}

func (h *Handler) runCapability(ctx context.Context, task *Task) (<-chan agent.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "a2a.execute")
	defer span.End()

	ctx = agent.WithTaskID(telemetry.WithLogger(ctx, h.logger), task.ID)
	req := ParseRequest(task.Message)
	return h.capability.Execute(ctx, req)
}

// drainEvents consumes the capability stream until its terminal event.
// Non-terminal events are forwarded to emit when one is given (the
// streaming path) and dropped otherwise (the buffered path).
func (h *Handler) drainEvents(events <-chan agent.Event, emit func(agent.Event)) (*Message, error) {
	var result *Message
	for ev := range events {
		switch ev.Type {
		case agent.EventResult:
			result = resultMessage(ev.Result)
		case agent.EventError:
			return nil, ev.Err
		default:
			if emit != nil {
				emit(ev)
			}
		}
	}
	if result == nil {
		return nil, fmt.Errorf("capability %q produced no result", h.capability.Name())
	}
	return result, nil
}

func (h *Handler) completeTask(ctx context.Context, taskID string, result Message) {
	_ = h.store.Complete(taskID, result)
	telemetry.Metrics.TasksTotal.WithLabelValues(string(TaskStateCompleted)).Inc()
	h.auditLogEvent(ctx, audit.EventTaskDone, taskID)
}

func (h *Handler) failTask(ctx context.Context, taskID string, err error) {
	_ = h.store.SetState(taskID, TaskStateFailed)
	telemetry.Metrics.TasksTotal.WithLabelValues(string(TaskStateFailed)).Inc()
	h.auditLogEvent(ctx, audit.EventTaskFail, taskID)
	h.logger.Error("task failed", "task_id", taskID, "error", err)
}

func (h *Handler) auditLogEvent(ctx context.Context, eventType, taskID string) {
	if h.auditLog == nil {
		return
	}
	_ = h.auditLog.Log(ctx, eventType, taskID, h.card.Name, "a2a", fmt.Sprintf("task_id=%s", taskID))
}

func resultMessage(res *agent.Result) *Message {
	parts := []Part{TextPart(res.Text)}
	if len(res.Data) > 0 {
		parts = append(parts, DataPart(res.Data))
	}
	msg := AssistantMessage(parts...)
	return &msg
}

func (h *Handler) writeRPC(w http.ResponseWriter, rpcMethod, status string, resp JSONRPCResponse) {
	if rpcMethod == "" {
		rpcMethod = "unknown"
	}
	telemetry.Metrics.RPCRequests.WithLabelValues(rpcMethod, status).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeSSE(w http.ResponseWriter, flusher http.Flusher, canFlush bool, event string, data any) {
	b, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	if canFlush {
		flusher.Flush()
	}
	telemetry.Metrics.SSEEvents.WithLabelValues(event).Inc()
}
