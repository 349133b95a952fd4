package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/qpuctl/internal/testutil/testlog"
)

func TestLoadFromSecretsFile(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvInstance, "")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "IBM_API_KEY=test-key-abc\nQISKIT_IBM_INSTANCE=crn:v1:bluemix:public:quantum-computing:us-east:a/1:2::\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}

	creds, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if creds.APIKey != "test-key-abc" {
		t.Fatalf("unexpected api key: %q", creds.APIKey)
	}
	if creds.Instance != "crn:v1:bluemix:public:quantum-computing:us-east:a/1:2::" {
		t.Fatalf("unexpected instance: %q", creds.Instance)
	}
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvInstance, "env-instance")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("IBM_API_KEY=file-key\nQISKIT_IBM_INSTANCE=file-instance\n"), 0o600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}

	creds, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if creds.APIKey != "env-key" || creds.Instance != "env-instance" {
		t.Fatalf("expected environment values to win, got %+v", creds)
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvInstance, "some-instance")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), EnvAPIKey) {
		t.Fatalf("error should name %s: %v", EnvAPIKey, err)
	}
}

func TestLoadMissingInstance(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvAPIKey, "some-key")
	t.Setenv(EnvInstance, "")

	_, err := Load("")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if !strings.Contains(err.Error(), EnvInstance) {
		t.Fatalf("error should name %s: %v", EnvInstance, err)
	}
}
