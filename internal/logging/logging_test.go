package logging

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// collect accepts one connection and returns every line it receives.
func collect(t *testing.T) (string, <-chan []string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan []string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			out <- nil
			return
		}
		defer conn.Close()
		var lines []string
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		out <- lines
	}()
	return ln.Addr().String(), out
}

func waitLines(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	select {
	case lines := <-ch:
		return lines
	case <-time.After(5 * time.Second):
		t.Fatal("logstash listener received nothing")
		return nil
	}
}

func TestLogstashWriterForwardsEntries(t *testing.T) {
	addr, lines := collect(t)
	w, err := NewLogstashWriter(addr)
	require.NoError(t, err)

	n, err := w.Write([]byte(`{"message":"first"}`))
	require.NoError(t, err)
	assert.Equal(t, len(`{"message":"first"}`), n)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, []string{`{"message":"first"}`, "second"}, waitLines(t, lines))
	assert.Zero(t, w.Dropped())
}

func TestLogstashWriterDropsWhenUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	w, err := NewLogstashWriter(addr, WithDialTimeout(200*time.Millisecond), WithRetryInterval(time.Minute))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		n, err := w.Write([]byte("entry"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	}
	require.NoError(t, w.Close())
	assert.Equal(t, int64(3), w.Dropped())

	_, err = w.Write([]byte("late"))
	assert.Error(t, err)
}

func TestLogstashWriterRejectsEmptyAddress(t *testing.T) {
	_, err := NewLogstashWriter("  ")
	assert.Error(t, err)
}

func TestNewTeesIntoLogstash(t *testing.T) {
	addr, lines := collect(t)
	logger, flush, err := New(Options{Level: "debug", LogstashAddr: addr})
	require.NoError(t, err)

	logger.Info("password reset email sent", zap.String("user_id", "u-1"))
	require.NoError(t, flush())

	got := waitLines(t, lines)
	require.Len(t, got, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(got[0]), &entry))
	assert.Equal(t, "password reset email sent", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, flush, err := New(Options{FilePath: path})
	require.NoError(t, err)
	logger.Debug("hidden at info level")
	logger.Warn("visible")
	require.NoError(t, flush())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	data := string(raw)
	assert.Contains(t, data, `"message":"visible"`)
	assert.NotContains(t, data, "hidden at info level")
}
