package secret

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// Ensure generated strings do not point to pooled buffers that may be reused
// This prevents subtle corruption where a returned string could change later
// because it referenced mutable pooled memory.
func TestStringImmutability(t *testing.T) {
	g := NewGenerator()

	s, err := g.String(32)
	if err != nil {
		t.Fatalf("initial String failed: %v", err)
	}

	// snapshot the bytes to detect later mutation
	snap := append([]byte(nil), s...)

	// force pool reuse
	for i := 0; i < 200; i++ {
		if _, err := g.String(32); err != nil {
			t.Fatalf("String call %d failed: %v", i, err)
		}
	}

	// original should still match snapshot
	if string(snap) != s {
		t.Fatalf("generated string mutated: got %q, want %q", s, string(snap))
	}
}

func TestStringWithPrefixImmutability(t *testing.T) {
	g := NewGenerator().WithPrefix("pfx-")

	s, err := g.String(16)
	if err != nil {
		t.Fatalf("String failed: %v", err)
	}
	if !strings.HasPrefix(s, "pfx-") {
		t.Fatalf("prefix missing: %q", s)
	}

	snap := append([]byte(nil), s...)

	for i := 0; i < 200; i++ {
		if _, err := g.String(16); err != nil {
			t.Fatalf("String call %d failed: %v", i, err)
		}
	}

	if string(snap) != s {
		t.Fatalf("generated string with prefix mutated: got %q, want %q", s, string(snap))
	}
}

func TestStringCharset(t *testing.T) {
	g := NewGenerator()
	s, err := g.String(512)
	if err != nil {
		t.Fatalf("String failed: %v", err)
	}
	if len(s) != 512 {
		t.Fatalf("length = %d, want 512", len(s))
	}
	for _, c := range s {
		ok := c == '-' || c == '_' ||
			(c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		if !ok {
			t.Fatalf("character %q outside URL-safe charset", c)
		}
	}
}

func TestHMACKeySizes(t *testing.T) {
	g := NewGenerator()
	for bits, want := range map[int]int{256: 32, 384: 48, 512: 64} {
		key, err := g.HMACKey(bits)
		if err != nil {
			t.Fatalf("HMACKey(%d) failed: %v", bits, err)
		}
		if len(key) != want {
			t.Fatalf("HMACKey(%d) = %d bytes, want %d", bits, len(key), want)
		}
	}
	if _, err := g.HMACKey(128); err == nil {
		t.Fatalf("HMACKey(128) should fail")
	}
}

func TestInvalidSizes(t *testing.T) {
	g := NewGenerator()
	if _, err := g.Key(0); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("Key(0): expected invalid size, got %v", err)
	}
	if _, err := g.Key(-1); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("Key(-1): expected invalid size, got %v", err)
	}
	if _, err := g.String(0); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("String(0): expected invalid length, got %v", err)
	}
}

func TestFailingEntropySource(t *testing.T) {
	g := NewGenerator(strings.NewReader("short"))
	if _, err := g.Key(64); !errors.Is(err, ErrReaderFailed) {
		t.Fatalf("expected reader failure, got %v", err)
	}
}

func TestReplaceInEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("APP_NAME=demo\nJWT_SECRET=old\nDEBUG=true\n"), 0o600); err != nil {
		t.Fatalf("seed env file: %v", err)
	}

	g := NewGenerator()
	if err := g.ReplaceInEnvFile(path, "JWT_SECRET", 32); err != nil {
		t.Fatalf("ReplaceInEnvFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read env file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("line count changed: %q", content)
	}
	if lines[0] != "APP_NAME=demo" || lines[2] != "DEBUG=true" {
		t.Fatalf("unrelated lines touched: %q", content)
	}
	if !strings.HasPrefix(lines[1], "JWT_SECRET=") || lines[1] == "JWT_SECRET=old" {
		t.Fatalf("secret not replaced: %q", lines[1])
	}
	if len(lines[1]) != len("JWT_SECRET=")+32 {
		t.Fatalf("replacement has wrong length: %q", lines[1])
	}

	// absent key is appended, and a missing file is created
	fresh := filepath.Join(t.TempDir(), "new.env")
	if err := g.ReplaceInEnvFile(fresh, "API_KEY", 16); err != nil {
		t.Fatalf("ReplaceInEnvFile on new file failed: %v", err)
	}
	content, err = os.ReadFile(fresh)
	if err != nil {
		t.Fatalf("read new env file: %v", err)
	}
	if !strings.HasPrefix(string(content), "API_KEY=") {
		t.Fatalf("key not appended: %q", content)
	}
}

func TestReplaceInJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"app":"demo","jwt_secret":"old"}`), 0o600); err != nil {
		t.Fatalf("seed json file: %v", err)
	}

	if err := NewGenerator().ReplaceInJSONFile(path, "jwt_secret", 48); err != nil {
		t.Fatalf("ReplaceInJSONFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json file: %v", err)
	}
	var data map[string]any
	if err := json.Unmarshal(content, &data); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if data["app"] != "demo" {
		t.Fatalf("unrelated key touched: %v", data)
	}
	s, _ := data["jwt_secret"].(string)
	if s == "old" || len(s) != 48 {
		t.Fatalf("secret not replaced: %q", s)
	}
}

func TestReplaceInYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app: demo\nsigning_key: old\n"), 0o600); err != nil {
		t.Fatalf("seed yaml file: %v", err)
	}

	if err := NewGenerator().ReplaceInYAMLFile(path, "signing_key", 24); err != nil {
		t.Fatalf("ReplaceInYAMLFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read yaml file: %v", err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		t.Fatalf("result is not valid YAML: %v", err)
	}
	if data["app"] != "demo" {
		t.Fatalf("unrelated key touched: %v", data)
	}
	s, _ := data["signing_key"].(string)
	if s == "old" || len(s) != 24 {
		t.Fatalf("secret not replaced: %q", s)
	}
}
