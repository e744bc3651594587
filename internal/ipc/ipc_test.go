package ipc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortSocket keeps the path under the unix socket length limit
func shortSocket(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "mcipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func serve(t *testing.T, handler Handler) string {
	t.Helper()
	socket := shortSocket(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, socket, handler, nil) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	require.Eventually(t, func() bool {
		_, err := os.Stat(socket)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	return socket
}

func TestRoundTrip(t *testing.T) {
	type echoArgs struct {
		Text  string `json:"text"`
		Count int    `json:"count"`
	}

	socket := serve(t, func(ctx context.Context, req *Request) *Response {
		switch req.Command {
		case "echo":
			var args echoArgs
			if err := req.DecodeArgs(&args); err != nil {
				return Errorf("%v", err)
			}
			return OK("echoed", args)
		default:
			return Errorf("unknown command %q", req.Command)
		}
	})

	var out echoArgs
	resp, err := Call(context.Background(), socket, "echo", echoArgs{Text: "hi", Count: 2}, &out)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, "echoed", resp.Message)
	assert.Equal(t, echoArgs{Text: "hi", Count: 2}, out)

	_, err = Call(context.Background(), socket, "nope", nil, nil)
	assert.ErrorContains(t, err, `unknown command "nope"`)
}

func TestNilHandlerResponse(t *testing.T) {
	socket := serve(t, func(ctx context.Context, req *Request) *Response { return nil })

	_, err := Call(context.Background(), socket, "anything", nil, nil)
	assert.ErrorContains(t, err, "no response for anything")
}

func TestSendRequestNoDaemon(t *testing.T) {
	_, err := Call(context.Background(), shortSocket(t), "status", nil, nil)
	assert.ErrorContains(t, err, "is it running")

	_, err = Call(context.Background(), "", "status", nil, nil)
	assert.Error(t, err)
}

func TestListenRemovesStaleSocket(t *testing.T) {
	socket := shortSocket(t)
	require.NoError(t, os.WriteFile(socket, []byte("stale"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, socket, func(context.Context, *Request) *Response { return OK("", nil) }, nil)
	}()

	require.Eventually(t, func() bool {
		_, err := Call(context.Background(), socket, "ping", nil, nil)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.NoFileExists(t, socket)
}

func TestResponseDecode(t *testing.T) {
	resp := OK("", map[string]int{"n": 3})
	var out map[string]int
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, 3, out["n"])

	errResp := Errorf("entry %s not found", "abc")
	assert.EqualError(t, errResp.Decode(&out), "daemon: entry abc not found")

	req, err := NewRequest("history.list", nil)
	require.NoError(t, err)
	assert.NoError(t, req.DecodeArgs(&out), "empty args are a no-op")
}
