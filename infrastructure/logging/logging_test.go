package logging

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// testLogger creates a logger that writes to a buffer for testing
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := bolt.NewJSONHandler(buf)
	logger := bolt.New(handler).SetLevel(bolt.TRACE)
	return logger, buf
}

func TestConfigs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
		format string
	}{
		{"default", DefaultConfig(), "console"},
		{"production", ProductionConfig(), "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.config.Level != "info" {
				t.Errorf("Level = %s, want info", tt.config.Level)
			}
			if tt.config.Format != tt.format {
				t.Errorf("Format = %s, want %s", tt.config.Format, tt.format)
			}
			if tt.config.Output == nil {
				t.Errorf("Output = nil")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%s) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"run id", RunID("run-123"), `"run_id":"run-123"`},
		{"problem", Problem("dectiger"), `"problem":"dectiger"`},
		{"iteration", Iteration(3), `"iteration":3`},
		{"phase", Phase("prune"), `"phase":"prune"`},
		{"agent", AgentName("a1"), `"agent":"a1"`},
		{"node", Node("n4"), `"node":"n4"`},
		{"node count", NodeCount(12), `"nodes":12`},
		{"added", Added(27), `"added":27`},
		{"pruned", Pruned(5), `"pruned":5`},
		{"beliefs", Beliefs(20), `"beliefs":20`},
		{"unknowns", Unknowns(64), `"unknowns":64`},
		{"value", Value(-4.5), `"value":"-4.5"`},
		{"epsilon", Epsilon(0.25), `"epsilon":"0.25"`},
		{"duration", Duration(1500 * time.Millisecond), `"duration_ms":1500`},
		{"converged", Converged(true), `"converged":true`},
		{"component", Component("pruner"), `"component":"pruner"`},
		{"str", Str("key", "value"), `"key":"value"`},
		{"int", Int("count", 7), `"count":7`},
		{"error", ErrorField(errors.New("test error")), `"error":"test error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger, buf := testLogger()
			tt.field(logger.Info()).Msg("test")
			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("expected %s in output: %s", tt.want, buf.String())
			}
		})
	}
}

func TestErrorFieldNil(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	ErrorField(nil)(logger.Info()).Msg("test")
	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
		t.Errorf("unexpected error field in output: %s", buf.String())
	}
}

func TestLogEvent(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()

	t.Run("Add chains fields", func(t *testing.T) {
		buf.Reset()
		NewEvent(logger.Info()).Add(RunID("run-1")).Add(Phase("backup")).Msg("test")

		if !bytes.Contains(buf.Bytes(), []byte(`"run_id":"run-1"`)) {
			t.Errorf("expected run_id field in output: %s", buf.String())
		}
		if !bytes.Contains(buf.Bytes(), []byte(`"phase":"backup"`)) {
			t.Errorf("expected phase field in output: %s", buf.String())
		}
	})

	t.Run("Send without message", func(t *testing.T) {
		buf.Reset()
		NewEvent(logger.Info()).Add(RunID("run-2")).Send()

		if !bytes.Contains(buf.Bytes(), []byte(`"run_id":"run-2"`)) {
			t.Errorf("expected run_id field in output: %s", buf.String())
		}
	})
}

func TestNewRespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := New(Config{Level: "warn", Format: "json", Output: buf})
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Errorf("info message logged at warn level: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Errorf("warn message missing: %s", buf.String())
	}
}

// TestDefaultLogger exercises the package-level helpers; it is not parallel
// because it swaps the default logger.
func TestDefaultLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Use(New(Config{Level: "trace", Format: "json", Output: buf}))
	defer Use(New(Config{Level: "error", Output: io.Discard}))

	if Get() == nil {
		t.Fatal("Get() returned nil")
	}

	Info().Add(Iteration(1)).Msg("iteration finished")
	if !bytes.Contains(buf.Bytes(), []byte(`"iteration":1`)) {
		t.Errorf("expected iteration field in output: %s", buf.String())
	}

	SetLevel("error")
	buf.Reset()
	Debug().Msg("suppressed")
	if buf.Len() != 0 {
		t.Errorf("debug message logged at error level: %s", buf.String())
	}

	for _, event := range []*LogEvent{Trace(), Warn(), Error()} {
		if event == nil {
			t.Fatal("level helper returned nil")
		}
		event.Send()
	}
}
