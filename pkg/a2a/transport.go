package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TransportKind is the wire mechanism used to reach a peer.
type TransportKind string

const (
	// TransportHTTP posts JSON-RPC to a plain HTTP endpoint.
	TransportHTTP TransportKind = "http"
	// TransportRuntime invokes a managed agent runtime by resource name.
	TransportRuntime TransportKind = "runtime"
)

// DetectTransport classifies a peer identifier. AWS resource names start
// with "arn:aws:"; anything else, including non-AWS arn-shaped strings, is
// treated as an HTTP base URL. Pure function of the identifier, no network
// probing.
func DetectTransport(identifier string) TransportKind {
	if strings.HasPrefix(identifier, "arn:aws:") {
		return TransportRuntime
	}
	return TransportHTTP
}

// Transport carries one JSON-RPC request to a peer and returns the raw
// response body. Implementations translate their mechanism's failures into
// ClientError so the client retry loop treats both transports uniformly.
type Transport interface {
	RoundTrip(ctx context.Context, body []byte) ([]byte, error)
}

type httpTransport struct {
	peer     string
	endpoint string
	token    string
	client   *http.Client
}

func newHTTPTransport(peer, endpoint, token string, timeout time.Duration) *httpTransport {
	return &httpTransport{
		peer:     peer,
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *httpTransport) RoundTrip(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/", bytes.NewReader(body))
	if err != nil {
		return nil, newClientError(t.peer, FailureProtocol, err, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		kind := classifyDialError(err)
		return nil, newClientError(t.peer, kind, err, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newClientError(t.peer, FailureProtocol, err, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		kind := classifyStatus(resp.StatusCode)
		return nil, newClientError(t.peer, kind, nil,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	return data, nil
}

// RuntimeInvoker is the managed-runtime call the runtime transport needs.
// Satisfied by the AWS Bedrock AgentCore data-plane client.
type RuntimeInvoker interface {
	Invoke(ctx context.Context, runtimeARN string, payload []byte) ([]byte, error)
}

type runtimeTransport struct {
	peer    string
	arn     string
	invoker RuntimeInvoker
}

func newRuntimeTransport(peer, arn string, invoker RuntimeInvoker) *runtimeTransport {
	return &runtimeTransport{peer: peer, arn: arn, invoker: invoker}
}

func (t *runtimeTransport) RoundTrip(ctx context.Context, body []byte) ([]byte, error) {
	data, err := t.invoker.Invoke(ctx, t.arn, body)
	if err != nil {
		var cerr *ClientError
		if ok := asClientError(err, &cerr); ok {
			return nil, cerr
		}
		return nil, newClientError(t.peer, classifyRuntimeError(err), err, err.Error())
	}
	// Runtimes wrap the JSON-RPC response; unwrap when the body is an
	// envelope, pass through when it is already a bare response.
	var envelope struct {
		Response json.RawMessage `json:"response"`
	}
	if json.Unmarshal(data, &envelope) == nil && len(envelope.Response) > 0 {
		return envelope.Response, nil
	}
	return data, nil
}
