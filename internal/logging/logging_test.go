package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenDisabledWithoutEnvVar(t *testing.T) {
	os.Unsetenv(envVar)
	logger, closeFn := Open()
	if logger != disabled {
		t.Error("expected discard logger when ZICRO_DEBUG_LOG is unset")
	}
	if err := closeFn(); err != nil {
		t.Fatalf("expected no-op close, got %v", err)
	}
}

func TestOpenWritesToConfiguredPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	t.Setenv(envVar, path)

	logger, closeFn := Open()
	logger.Printf("hello %d", 1)
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty log file")
	}
}
