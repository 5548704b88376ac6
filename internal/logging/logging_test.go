package logging

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quantdesk/server/config"
)

func TestSetupFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "quantdesk.log")
	logger, closer := Setup(config.LogConfig{File: file, MaxSizeMB: 1, MaxBackups: 1})
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	logger.Printf("[quant] hello %d", 42)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "[quant] hello 42") {
		t.Errorf("log file = %q", b)
	}
}

func TestSetupStderr(t *testing.T) {
	logger, closer := Setup(config.LogConfig{})
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	if logger == nil {
		t.Fatal("nil logger")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
