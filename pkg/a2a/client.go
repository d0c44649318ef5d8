package a2a

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msequeira/fitmesh/pkg/agent"
	"github.com/msequeira/fitmesh/pkg/audit"
	"github.com/msequeira/fitmesh/pkg/telemetry"
)

const (
	maxAttempts    = 3
	backoffBase    = 1 * time.Second
	backoffCap     = 10 * time.Second
	defaultTimeout = 120 * time.Second
)

// Client talks A2A JSON-RPC to one peer agent. The transport is fixed at
// construction from the shape of the identifier; every operation goes
// through the same envelope, retry and classification path regardless of
// which transport carries it.
type Client struct {
	peer       string
	identifier string
	kind       TransportKind
	transport  Transport
	httpClient *http.Client
	token      string
	timeout    time.Duration
	audit      *audit.Logger
}

type ClientOption func(*Client)

// WithAuthToken sets the bearer token sent on HTTP requests.
func WithAuthToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithTimeout overrides the per-attempt request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithAuditLog records retry and failure events for outbound calls.
func WithAuditLog(log *audit.Logger) ClientOption {
	return func(c *Client) { c.audit = log }
}

// WithRuntimeInvoker supplies the managed-runtime invoker. Required when
// the identifier is a resource name; ignored for HTTP endpoints.
func WithRuntimeInvoker(inv RuntimeInvoker) ClientOption {
	return func(c *Client) {
		if c.kind == TransportRuntime {
			c.transport = newRuntimeTransport(c.peer, c.identifier, inv)
		}
	}
}

// NewClient builds a client for the peer reachable at identifier, which is
// either an HTTP base URL or a managed runtime resource name.
func NewClient(peer, identifier string, opts ...ClientOption) *Client {
	c := &Client{
		peer:       peer,
		identifier: identifier,
		kind:       DetectTransport(identifier),
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil && c.kind == TransportHTTP {
		c.transport = newHTTPTransport(peer, identifier, c.token, c.timeout)
	}
	c.httpClient = &http.Client{Timeout: c.timeout}
	return c
}

func (c *Client) Peer() string        { return c.peer }
func (c *Client) Kind() TransportKind { return c.kind }

// Send submits a message as a new task and waits for the buffered response.
func (c *Client) Send(ctx context.Context, msg Message) (*TaskResult, error) {
	taskID := "task-" + uuid.NewString()[:8]
	params := map[string]any{
		"task": Task{ID: taskID, Message: msg},
	}
	return c.call(ctx, MethodSend, params)
}

// GetTask fetches the current state of a previously submitted task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*TaskResult, error) {
	return c.call(ctx, MethodGet, map[string]any{"taskId": taskID})
}

// CancelTask requests cancellation of a task.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*TaskResult, error) {
	return c.call(ctx, MethodCancel, map[string]any{"taskId": taskID})
}

func (c *Client) call(ctx context.Context, rpcMethod string, params any) (*TaskResult, error) {
	body, err := marshalRequest(rpcMethod, params)
	if err != nil {
		return nil, newClientError(c.peer, FailureProtocol, err, err.Error())
	}

	raw, err := c.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp JSONRPCResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, newClientError(c.peer, FailureProtocol, err,
			fmt.Sprintf("malformed response: %v", err))
	}
	if resp.Error != nil {
		return nil, &ClientError{
			Peer:    c.peer,
			Kind:    classifyEnvelope(resp.Error.Code),
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
			Data:    resp.Error.Data,
		}
	}

	var result TaskResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, newClientError(c.peer, FailureProtocol, err,
			fmt.Sprintf("malformed result: %v", err))
	}
	return &result, nil
}

// doWithRetry runs one transport round trip with bounded exponential
// backoff. Only transport failures classified as retryable are retried;
// JSON-RPC envelope errors come back as parseable bodies and are never
// retried here.
func (c *Client) doWithRetry(ctx context.Context, body []byte) ([]byte, error) {
	if c.transport == nil {
		return nil, newClientError(c.peer, FailureProtocol, nil,
			"runtime identifier given but no runtime invoker configured")
	}
	log := telemetry.FromContext(ctx)

	var lastErr *ClientError
	delay := backoffBase
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := c.transport.RoundTrip(ctx, body)
		if err == nil {
			return raw, nil
		}

		cerr, ok := err.(*ClientError)
		if !ok {
			cerr = newClientError(c.peer, FailureProtocol, err, err.Error())
		}
		telemetry.Metrics.ClientFailures.WithLabelValues(c.peer, string(cerr.Kind)).Inc()
		if !cerr.Kind.Retryable() {
			c.auditEvent(ctx, audit.EventClientFailure,
				fmt.Sprintf("kind=%s attempt=%d: %s", cerr.Kind, attempt, cerr.Message))
			return nil, cerr
		}
		lastErr = cerr

		if attempt == maxAttempts {
			break
		}
		log.Warn("a2a call failed, retrying",
			"peer", c.peer, "kind", string(cerr.Kind),
			"attempt", attempt, "delay", delay.String())
		telemetry.Metrics.ClientRetries.WithLabelValues(c.peer).Inc()
		c.auditEvent(ctx, audit.EventClientRetry,
			fmt.Sprintf("kind=%s attempt=%d delay=%s", cerr.Kind, attempt, delay))

		select {
		case <-ctx.Done():
			return nil, newClientError(c.peer, FailureTimeout, ctx.Err(), ctx.Err().Error())
		case <-time.After(delay):
		}
		delay *= 2
		if delay > backoffCap {
			delay = backoffCap
		}
	}

	c.auditEvent(ctx, audit.EventClientFailure,
		fmt.Sprintf("kind=%s attempts=%d: %s", lastErr.Kind, maxAttempts, lastErr.Message))
	return nil, &ClientError{
		Peer:    c.peer,
		Kind:    lastErr.Kind,
		Code:    ErrCodeAgentUnavailable,
		Message: fmt.Sprintf("agent unreachable after %d attempts: %s", maxAttempts, lastErr.Message),
		cause:   lastErr,
	}
}

func (c *Client) auditEvent(ctx context.Context, eventType, detail string) {
	if c.audit == nil {
		return
	}
	_ = c.audit.Log(ctx, eventType, agent.TaskIDFromContext(ctx), c.peer, "client", detail)
}

func marshalRequest(rpcMethod string, params any) ([]byte, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(JSONRPCRequest{
		JSONRPC: jsonrpcVersion,
		ID:      uuid.NewString(),
		Method:  rpcMethod,
		Params:  rawParams,
	})
}

// AgentCard fetches the peer's published card. HTTP transport only;
// managed runtimes do not expose a card endpoint.
func (c *Client) AgentCard(ctx context.Context) (*AgentCard, error) {
	if c.kind != TransportHTTP {
		return nil, newClientError(c.peer, FailureProtocol, nil,
			"agent card is only available over http")
	}
	url := strings.TrimRight(c.identifier, "/") + "/.well-known/agent.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newClientError(c.peer, FailureProtocol, err, err.Error())
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newClientError(c.peer, classifyDialError(err), err, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, newClientError(c.peer, classifyStatus(resp.StatusCode), nil,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, newClientError(c.peer, FailureProtocol, err, err.Error())
	}
	return &card, nil
}

// StreamEvent is one server-sent event from a streaming task.
type StreamEvent struct {
	Name string
	Data map[string]any
}

// SendSubscribe submits a task and streams its events until the server
// closes the stream. HTTP transport only. The returned channel is closed
// after the terminal event or on stream error.
func (c *Client) SendSubscribe(ctx context.Context, msg Message) (<-chan StreamEvent, error) {
	if c.kind != TransportHTTP {
		return nil, newClientError(c.peer, FailureProtocol, nil,
			"streaming is only available over http")
	}
	taskID := "task-" + uuid.NewString()[:8]
	body, err := marshalRequest(MethodSendSubscribe, map[string]any{
		"task": Task{ID: taskID, Message: msg},
	})
	if err != nil {
		return nil, newClientError(c.peer, FailureProtocol, err, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.identifier, "/")+"/", bytes.NewReader(body))
	if err != nil {
		return nil, newClientError(c.peer, FailureProtocol, err, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// No overall timeout on the streaming connection; the context bounds it.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, newClientError(c.peer, classifyDialError(err), err, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, newClientError(c.peer, classifyStatus(resp.StatusCode), nil,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var name string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				var data map[string]any
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err != nil {
					continue
				}
				select {
				case events <- StreamEvent{Name: name, Data: data}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}
