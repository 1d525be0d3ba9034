package logging

import (
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "JSON format to stdout",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Console format to stderr",
			config: Config{
				Level:  "debug",
				Format: "console",
				Output: "stderr",
			},
			wantErr: false,
		},
		{
			name: "Invalid log level defaults to info",
			config: Config{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Unwritable file path",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "/nonexistent-dir/log.txt",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("Expected non-nil logger")
			}
		})
	}
}

func TestLoggerHelpers(t *testing.T) {
	logger := Nop()

	// Derived loggers must be distinct instances, not mutations.
	withJob := logger.WithJobID("job-1")
	if withJob == logger {
		t.Error("WithJobID should return a new logger")
	}

	withVideo := logger.WithVideo("clip")
	if withVideo == logger {
		t.Error("WithVideo should return a new logger")
	}

	// None of these should panic on a nop logger.
	logger.Debug("debug")
	logger.Infof("info %d", 1)
	logger.Warn("warn")
	logger.ErrorWithErr("error", nil)
	logger.LogStageEvent("job-1", "extracting", map[string]interface{}{"frames": 10})
	logger.LogFrameProgress("job-1", 3, 10)
}

func TestNewConsoleLogger(t *testing.T) {
	if NewConsoleLogger(false) == nil {
		t.Fatal("expected logger")
	}
	if NewConsoleLogger(true) == nil {
		t.Fatal("expected verbose logger")
	}
}
