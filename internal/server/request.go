package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	executor "github.com/hanpama/membergraph/internal/executor"
)

// Request is one GraphQL operation as sent by a client.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// badRequest rejects an HTTP request before any operation runs.
type badRequest struct {
	status int
	msg    string
}

func (e *badRequest) Error() string { return e.msg }

func reject(msg string) *badRequest { return &badRequest{status: http.StatusBadRequest, msg: msg} }

func (e *badRequest) result() *executor.ExecutionResult {
	return &executor.ExecutionResult{
		Errors:  []executor.GraphQLError{{Message: e.msg, Extensions: map[string]any{"code": "BAD_REQUEST"}}},
		Aborted: true,
	}
}

// decodeRequest reads the operations of r. batched is set when the body was
// a JSON array, even one holding a single operation.
func decodeRequest(r *http.Request, maxBody int64) (ops []Request, batched bool, err error) {
	if r.Method == http.MethodGet {
		op, err := decodeQueryString(r)
		if err != nil {
			return nil, false, err
		}
		return []Request{op}, false, nil
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		if media, _, perr := mime.ParseMediaType(ct); perr != nil || media != "application/json" {
			return nil, false, reject("unsupported Content-Type")
		}
	}
	defer r.Body.Close()
	body, err := readBody(r.Body, maxBody)
	if err != nil {
		return nil, false, err
	}

	if trimmed := bytes.TrimLeft(body, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(body, &ops); err != nil {
			return nil, true, reject("invalid JSON")
		}
		if len(ops) == 0 {
			return nil, true, reject("empty batch")
		}
		return ops, true, nil
	}
	var op Request
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, false, reject("invalid JSON")
	}
	if op.Query == "" {
		return nil, false, reject("missing 'query'")
	}
	return []Request{op}, false, nil
}

func decodeQueryString(r *http.Request) (Request, error) {
	params := r.URL.Query()
	op := Request{Query: params.Get("query"), OperationName: params.Get("operationName")}
	if op.Query == "" {
		return op, reject("missing 'query'")
	}
	if v := params.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &op.Variables); err != nil {
			return op, reject("invalid 'variables' JSON")
		}
	}
	return op, nil
}

func readBody(body io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, reject("failed to read body")
		}
		return b, nil
	}
	b, err := io.ReadAll(io.LimitReader(body, limit+1))
	switch {
	case err != nil:
		return nil, reject("failed to read body")
	case int64(len(b)) > limit:
		return nil, &badRequest{status: http.StatusRequestEntityTooLarge, msg: "body too large"}
	}
	return b, nil
}

func asBadRequest(err error) *badRequest {
	var br *badRequest
	if errors.As(err, &br) {
		return br
	}
	return reject(err.Error())
}
