package cliconfig

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.InstructionLimit != 0 {
		t.Errorf("expected default instruction_limit 0, got %d", cfg.InstructionLimit)
	}
	if cfg.SocketTimeoutMS != 30000 {
		t.Errorf("expected default socket_timeout_ms 30000, got %d", cfg.SocketTimeoutMS)
	}
	if !cfg.TLSVerify {
		t.Error("expected default tls_verify true")
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	configContent := `
instruction_limit: 100000
timeout_ms: 5000
socket_timeout_ms: 2000
tls_verify: false
`
	os.WriteFile("cupidscript.yml", []byte(configContent), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.InstructionLimit != 100000 {
		t.Errorf("expected instruction_limit 100000, got %d", cfg.InstructionLimit)
	}
	if cfg.Timeout().Milliseconds() != 5000 {
		t.Errorf("expected timeout 5000ms, got %v", cfg.Timeout())
	}
	if cfg.SocketTimeout().Milliseconds() != 2000 {
		t.Errorf("expected socket timeout 2000ms, got %v", cfg.SocketTimeout())
	}
	if cfg.TLSVerify {
		t.Error("expected tls_verify false")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	os.Setenv("CUPIDSCRIPT_INSTRUCTION_LIMIT", "42")
	defer os.Unsetenv("CUPIDSCRIPT_INSTRUCTION_LIMIT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.InstructionLimit != 42 {
		t.Errorf("expected instruction_limit 42 from env, got %d", cfg.InstructionLimit)
	}
}
