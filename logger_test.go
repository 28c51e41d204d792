package gridwire

import (
	"log/slog"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_Interface(t *testing.T) {
	// Verify that *slog.Logger implements our Logger interface
	var _ Logger = slog.Default()
	var _ Logger = &ZapLogger{}
}

func TestDefaultLogger(t *testing.T) {
	logger := defaultLogger()

	if logger == nil {
		t.Fatal("defaultLogger returned nil")
	}

	if logger != slog.Default() {
		t.Error("defaultLogger did not return slog.Default()")
	}
}

// mockLogger records the last call. Connections log from several
// goroutines, so it locks.
type mockLogger struct {
	mu       sync.Mutex
	calls    map[string]int
	lastMsg  string
	lastArgs []any
}

func (l *mockLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]int)
	}
	l.calls[level]++
	l.lastMsg = msg
	l.lastArgs = args
}

func (l *mockLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[level]
}

func (l *mockLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *mockLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *mockLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *mockLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

func TestLogger_CustomImplementation(t *testing.T) {
	mock := &mockLogger{}
	var logger Logger = mock

	logger.Debug("test debug", "key1", "value1")
	if mock.count("debug") != 1 {
		t.Error("Debug not called")
	}
	if mock.lastMsg != "test debug" {
		t.Errorf("lastMsg = %s, want 'test debug'", mock.lastMsg)
	}
	if len(mock.lastArgs) != 2 {
		t.Errorf("lastArgs length = %d, want 2", len(mock.lastArgs))
	}

	logger.Warn("test warn")
	if mock.count("warn") != 1 {
		t.Error("Warn not called")
	}
}

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("fragment dropped", "fragment_id", int64(7), "reason", "unknown")
	logger.Info("connection established", "addr", "127.0.0.1:5701")
	logger.Warn("malformed stream")
	logger.Error("accept error", "error", "boom")

	entries := logs.AllUntimed()
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	levels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, want := range levels {
		if entries[i].Level != want {
			t.Errorf("entry %d level = %v, want %v", i, entries[i].Level, want)
		}
	}

	fields := entries[0].ContextMap()
	if fields["fragment_id"] != int64(7) {
		t.Errorf("fragment_id = %v, want 7", fields["fragment_id"])
	}
	if fields["reason"] != "unknown" {
		t.Errorf("reason = %v, want unknown", fields["reason"])
	}
}
