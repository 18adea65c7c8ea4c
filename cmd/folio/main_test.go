package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BEAVER_FOLIO_DRIVER", "memory")
	t.Setenv("BEAVER_FOLIO_DB_DSN", filepath.Join(t.TempDir(), "folio.db"))
	t.Setenv("BEAVER_FOLIO_LOG_LEVEL", "error")
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"argument", "", []string{"hash-password", "s3cret"}},
		{"stdin", "s3cret\n", []string{"hash-password"}},
		{"stdin without newline", "s3cret", []string{"hash-password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("hash-password error = %v", err)
			}
			hash := strings.TrimSpace(out)
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
				t.Errorf("hash %q does not match password: %v", hash, err)
			}
		})
	}
}

func TestHashPasswordEmpty(t *testing.T) {
	if _, err := execute(t, "", "hash-password"); err == nil {
		t.Error("hash-password should fail without a password")
	}
	if _, err := execute(t, "\n", "hash-password"); err == nil {
		t.Error("hash-password should fail on an empty line")
	}
}

func TestSeedAndSweep(t *testing.T) {
	setTestEnv(t)

	file := filepath.Join(t.TempDir(), "projects.yaml")
	seed := `projects:
  - name: folio
    description: Portfolio backend
    tags: [go, echo]
    status: active
    is_featured: true
  - name: notes
    description: Markdown notes
`
	if err := os.WriteFile(file, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "seed", "--file", file)
	if err != nil {
		t.Fatalf("seed error = %v", err)
	}
	if !strings.Contains(out, "created project 1: folio") || !strings.Contains(out, "created project 2: notes") {
		t.Errorf("seed output = %q", out)
	}

	out, err = execute(t, "", "sweep", "--dry-run")
	if err != nil {
		t.Fatalf("sweep error = %v", err)
	}
	if !strings.Contains(out, "scanned 0, kept 0, would remove 0") {
		t.Errorf("sweep output = %q", out)
	}
}

func TestSeedMissingFile(t *testing.T) {
	setTestEnv(t)
	if _, err := execute(t, "", "seed", "--file", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("seed should fail on a missing file")
	}
}

func TestServeRequiresAuthConfig(t *testing.T) {
	setTestEnv(t)
	if _, err := execute(t, "", "serve"); err == nil {
		t.Error("serve should fail without an admin password hash")
	}
}
