package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WithValidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid json config stdout",
			config:  Config{Level: "debug", Format: "json", Output: "stdout"},
			wantErr: false,
		},
		{
			name:    "valid text config stderr",
			config:  Config{Level: "info", Format: "text", Output: "stderr"},
			wantErr: false,
		},
		{
			name:    "invalid level",
			config:  Config{Level: "invalid", Format: "json", Output: "stdout"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "xml", Output: "stdout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, log)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, log)
			}
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "picobot.log")
	log, err := New(Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("file output works")
	assert.FileExists(t, path)
}

func TestLogger_FieldsArePresent(t *testing.T) {
	var buf bytes.Buffer
	log := &Logger{slog: slog.New(slog.NewJSONHandler(&buf, nil))}

	log.Info("test message",
		Field{Key: "kind", Value: "cron"},
		Field{Key: "count", Value: 3})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "test message", record["msg"])
	assert.Equal(t, "cron", record["kind"])
	assert.Equal(t, float64(3), record["count"])
}

func TestLogger_ErrorAttachesError(t *testing.T) {
	var buf bytes.Buffer
	log := &Logger{slog: slog.New(slog.NewJSONHandler(&buf, nil))}

	log.Error("boom", assert.AnError)

	assert.Contains(t, buf.String(), "assert.AnError")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := &Logger{slog: slog.New(slog.NewJSONHandler(&buf, nil))}

	child := log.With(Field{Key: "session_id", Value: "s-1"})
	child.Info("hello")

	assert.Contains(t, buf.String(), "session_id")
	assert.Contains(t, buf.String(), "s-1")
}
