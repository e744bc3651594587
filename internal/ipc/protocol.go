package ipc

import (
	"encoding/json"
	"fmt"
)

// Response status values
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request represents a command sent from the CLI to the daemon.
type Request struct {
	Command string          `json:"command"`        // e.g. "history.list", "snippet.add"
	Args    json.RawMessage `json:"args,omitempty"` // Command-specific arguments
}

// Response represents a reply from the daemon to the CLI.
type Response struct {
	Status  string          `json:"status"`            // "ok" or "error"
	Message string          `json:"message,omitempty"` // Human-readable message or error
	Data    json.RawMessage `json:"data,omitempty"`    // Command-specific payload
}

// NewRequest builds a request, encoding args when non-nil
func NewRequest(command string, args any) (*Request, error) {
	req := &Request{Command: command}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s args: %w", command, err)
		}
		req.Args = raw
	}
	return req, nil
}

// DecodeArgs unmarshals the request arguments into v. Missing args leave v untouched.
func (r *Request) DecodeArgs(v any) error {
	if len(r.Args) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Args, v); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", r.Command, err)
	}
	return nil
}

// OK returns a successful response carrying data
func OK(message string, data any) *Response {
	resp := &Response{Status: StatusOK, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Errorf("failed to encode response: %v", err)
		}
		resp.Data = raw
	}
	return resp
}

// Errorf returns an error response
func Errorf(format string, args ...any) *Response {
	return &Response{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// Err converts an error response into a Go error, nil for success
func (r *Response) Err() error {
	if r.Status == StatusOK {
		return nil
	}
	if r.Message == "" {
		return fmt.Errorf("daemon returned status %q", r.Status)
	}
	return fmt.Errorf("daemon: %s", r.Message)
}

// Decode unmarshals the response payload into v
func (r *Response) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
