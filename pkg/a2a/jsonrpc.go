package a2a

import "encoding/json"

const jsonrpcVersion = "2.0"

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const (
	ErrCodeParse            = -32700
	ErrCodeInvalidReq       = -32600
	ErrCodeMethodNotFound   = -32601
	ErrCodeInvalidParams    = -32602
	ErrCodeInternal         = -32603
	ErrCodeTaskNotFound     = -32000
	ErrCodeAgentUnavailable = -32001
	ErrCodeTaskCanceled     = -32002
)

// method is the closed set of A2A operations. Routing on a parsed method
// value rather than the raw string keeps unknown methods on one explicit
// branch.
type method int

const (
	methodUnknown method = iota
	methodSend
	methodGet
	methodCancel
	methodSendSubscribe
)

const (
	MethodSend          = "tasks/send"
	MethodGet           = "tasks/get"
	MethodCancel        = "tasks/cancel"
	MethodSendSubscribe = "tasks/sendSubscribe"
)

func parseMethod(s string) method {
	switch s {
	case MethodSend:
		return methodSend
	case MethodGet:
		return methodGet
	case MethodCancel:
		return methodCancel
	case MethodSendSubscribe:
		return methodSendSubscribe
	default:
		return methodUnknown
	}
}

func NewJSONRPCResponse(id any, result any) JSONRPCResponse {
	raw, _ := json.Marshal(result)
	return JSONRPCResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Result:  raw,
	}
}

func NewJSONRPCError(id any, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}

func NewJSONRPCErrorData(id any, code int, message string, data any) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message, Data: data},
	}
}
