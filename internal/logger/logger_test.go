package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"prod", "production", "local", "dev", "development", "docker", "test", "TESTING"} {
		t.Run(env, func(t *testing.T) {
			l, err := NewLogger(env)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if l == nil {
				t.Fatal("expected logger")
			}
		})
	}
}

func TestNewLogger_UnknownEnv(t *testing.T) {
	if _, err := NewLogger("staging-42"); err == nil {
		t.Fatal("expected error for unknown env")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "debug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level enabled")
	}

	if _, err := NewLogger("prod", "loud"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNewLogger_TestEnvIsQuiet(t *testing.T) {
	l, err := NewLogger("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info disabled in test env")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("expected warn enabled in test env")
	}
}

func TestContextLogger(t *testing.T) {
	fallback := zap.NewExample()
	if got := FromContextOr(context.Background(), fallback); got != fallback {
		t.Error("expected fallback for empty context")
	}
	if FromContext(context.Background()) == nil {
		t.Error("expected nop logger, got nil")
	}

	stored := zap.NewNop()
	ctx := ContextWithLogger(context.Background(), stored)
	if got := FromContextOr(ctx, fallback); got != stored {
		t.Error("expected stored logger")
	}
}
