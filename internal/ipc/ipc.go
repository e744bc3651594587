// Package ipc is the JSON request/response transport between the CLI and
// the daemon. Each connection carries one request and one response.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a client round trip when ctx has no deadline
const DefaultTimeout = 10 * time.Second

// Handler serves one request
type Handler func(ctx context.Context, req *Request) *Response

// SendRequest connects to the daemon, sends a request, and returns the response.
func SendRequest(ctx context.Context, socketPath string, req *Request) (*Response, error) {
	if socketPath == "" {
		return nil, errors.New("no daemon socket configured")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon (is it running?): %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// Call sends command with args and decodes the payload into out (if non-nil)
func Call(ctx context.Context, socketPath, command string, args, out any) (*Response, error) {
	req, err := NewRequest(command, args)
	if err != nil {
		return nil, err
	}
	resp, err := SendRequest(ctx, socketPath, req)
	if err != nil {
		return nil, err
	}
	if out != nil {
		return resp, resp.Decode(out)
	}
	return resp, resp.Err()
}

// ListenAndServe serves requests on socketPath until ctx is cancelled.
// A stale socket file left by a previous run is removed first.
func ListenAndServe(ctx context.Context, socketPath string, handler Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if socketPath == "" {
		return errors.New("no daemon socket configured")
	}

	os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	defer os.Remove(socketPath)
	if err := os.Chmod(socketPath, 0600); err != nil {
		logger.Warn("Failed to restrict socket permissions", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logger.Info("IPC server listening", zap.String("socket", socketPath))

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConn(ctx, conn, handler, logger)
		}()
	}
}

func handleConn(ctx context.Context, conn net.Conn, handler Handler, logger *zap.Logger) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(DefaultTimeout))
	enc := json.NewEncoder(conn)

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		enc.Encode(Errorf("invalid request: %v", err))
		return
	}

	resp := handler(ctx, &req)
	if resp == nil {
		resp = Errorf("no response for %s", req.Command)
	}
	if err := enc.Encode(resp); err != nil {
		logger.Debug("Failed to write IPC response", zap.String("command", req.Command), zap.Error(err))
	}
}
