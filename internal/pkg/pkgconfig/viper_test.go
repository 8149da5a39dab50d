package pkgconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestViperConfigValues(t *testing.T) {
	path := writeConfigFile(t, "int: 42\nbool: true\nfloat: 3.14\nstring: hi\nbinary: aGVsbG8=\narray: a, b,,c\nmap: k1:v1,k2:v2\nttl: 90s\n")

	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	defer func() {
		if err := cfg.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}()

	if got := cfg.GetInt("int"); got != 42 {
		t.Fatalf("GetInt: expected 42, got %d", got)
	}
	if got := cfg.GetBool("bool"); got != true {
		t.Fatalf("GetBool: expected true, got %v", got)
	}
	if got := cfg.GetFloat("float"); got != 3.14 {
		t.Fatalf("GetFloat: expected 3.14, got %v", got)
	}
	if got := cfg.GetString("string"); got != "hi" {
		t.Fatalf("GetString: expected hi, got %q", got)
	}
	if got := cfg.GetDuration("ttl"); got != 90*time.Second {
		t.Fatalf("GetDuration: expected 90s, got %v", got)
	}
	if got := string(cfg.GetBinary("binary")); got != "hello" {
		t.Fatalf("GetBinary: expected hello, got %q", got)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, cfg.GetArray("array")); diff != "" {
		t.Fatalf("GetArray mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"k1": "v1", "k2": "v2"}, cfg.GetMap("map")); diff != "" {
		t.Fatalf("GetMap mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.GetArray("missing"); len(got) != 0 {
		t.Fatalf("GetArray on missing key: expected empty, got %#v", got)
	}
}

func TestViperGetBinaryInvalid(t *testing.T) {
	path := writeConfigFile(t, "binary: not-base64\n")
	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}

	if got := cfg.GetBinary("binary"); got != nil {
		t.Fatalf("expected nil for invalid base64, got %v", got)
	}
}

func TestViperEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "llm:\n  api_key: from-file\nserver:\n  address:\n    http: \":8080\"\n")

	t.Setenv("GROQ_API_KEY", "from-env")
	t.Setenv("SERVER_ADDRESS_HTTP", ":9090")

	cfg, err := NewViper(path, WithEnv("llm.api_key", "GROQ_API_KEY"))
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}

	if got := cfg.GetString("llm.api_key"); got != "from-env" {
		t.Fatalf("expected bound env to win, got %q", got)
	}
	if got := cfg.GetString("server.address.http"); got != ":9090" {
		t.Fatalf("expected automatic env to win, got %q", got)
	}
}

func TestViperDotEnvAndDefaults(t *testing.T) {
	path := writeConfigFile(t, "string: hi\n")
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("RF_TEST_SEARCH_KEY=dotenv-value\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("RF_TEST_SEARCH_KEY") })

	cfg, err := NewViper(path,
		WithDotEnv(envFile, filepath.Join(t.TempDir(), "missing.env")),
		WithEnv("search.api_key", "RF_TEST_SEARCH_KEY"),
		WithDefault("workers", 3),
	)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}

	if got := cfg.GetString("search.api_key"); got != "dotenv-value" {
		t.Fatalf("expected value from dotenv, got %q", got)
	}
	if got := cfg.GetInt("workers"); got != 3 {
		t.Fatalf("expected default 3, got %d", got)
	}
}
