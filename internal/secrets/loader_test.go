package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	return path
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("HIRE_TEST_SECRET", "  from-env  ")

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{name: "file wins", src: Source{File: writeSecret(t, "from-file\n"), Value: "inline", Env: "HIRE_TEST_SECRET"}, want: "from-file"},
		{name: "value beats env", src: Source{Value: " inline ", Env: "HIRE_TEST_SECRET"}, want: "inline"},
		{name: "env fallback", src: Source{Env: "HIRE_TEST_SECRET"}, want: "from-env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("HIRE_TEST_EMPTY", "")

	tests := []struct {
		name          string
		src           Source
		notConfigured bool
	}{
		{name: "nothing", src: Source{Name: "gemini api key"}, notConfigured: true},
		{name: "empty env", src: Source{Env: "HIRE_TEST_EMPTY"}, notConfigured: true},
		{name: "missing file", src: Source{File: filepath.Join(t.TempDir(), "absent")}},
		{name: "empty file", src: Source{File: writeSecret(t, "  \n")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrNotConfigured); got != tt.notConfigured {
				t.Fatalf("errors.Is(ErrNotConfigured) = %v, err = %v", got, err)
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	got, err := LoadOptional(Source{Name: "twilio auth token"})
	if err != nil || got != "" {
		t.Fatalf("expected empty secret without error, got %q %v", got, err)
	}

	if _, err := LoadOptional(Source{File: filepath.Join(t.TempDir(), "absent")}); err == nil {
		t.Fatal("read failures must still be reported")
	}
}
