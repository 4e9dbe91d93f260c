package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnvFilePreservesExistingAndParsesShellSyntax(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# catalog\n" +
		"export CATALOG_TEST_BACKEND=sqlite\n" +
		"CATALOG_TEST_KEY=\"products\"\n" +
		"CATALOG_TEST_LOCALE='de' \n" +
		"CATALOG_TEST_TTL=3s # toast lifetime\n" +
		"CATALOG_TEST_KEEP=file\n" +
		"not a pair\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CATALOG_TEST_KEEP", "env")
	for _, k := range []string{"CATALOG_TEST_BACKEND", "CATALOG_TEST_KEY", "CATALOG_TEST_LOCALE", "CATALOG_TEST_TTL"} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	want := map[string]string{
		"CATALOG_TEST_BACKEND": "sqlite",
		"CATALOG_TEST_KEY":     "products",
		"CATALOG_TEST_LOCALE":  "de",
		"CATALOG_TEST_TTL":     "3s",
		"CATALOG_TEST_KEEP":    "env",
	}
	for k, v := range want {
		if got := os.Getenv(k); got != v {
			t.Fatalf("%s: expected %q, got %q", k, v, got)
		}
	}
}

func TestLoadEnvFileMissingIsNotAnError(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Fatalf("expected nil for empty path, got %v", err)
	}
}

func TestWriteCIResult(t *testing.T) {
	var buf bytes.Buffer
	WriteCIResult(&buf, false, "catalog delete", []string{"cancelled"}, errors.New("boom"))
	var res CIResult
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.OK || res.Title != "catalog delete" || res.Error != "boom" || res.Details[0] != "cancelled" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestFinishPrintsAndExits(t *testing.T) {
	var code int
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	var buf bytes.Buffer
	finish(context.Background(), &buf, Outcome{
		Tool: "seed", Command: "apply", CI: true,
		Details: []string{"seeded 4 products"}, Started: time.Now(),
	})
	if code != 0 {
		t.Fatalf("success must not exit, got %d", code)
	}
	var res CIResult
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.OK || res.Title != "seed apply" {
		t.Fatalf("unexpected result %+v", res)
	}

	buf.Reset()
	finish(context.Background(), &buf, Outcome{Tool: "loadgen", Command: "run", Err: errors.New("5xx seen"), Started: time.Now(), ExitCode: ExitCheckFailed})
	if code != ExitCheckFailed {
		t.Fatalf("expected exit %d, got %d", ExitCheckFailed, code)
	}
	if buf.Len() != 0 {
		t.Fatalf("non-ci runs print nothing, got %q", buf.String())
	}

	finish(context.Background(), &buf, Outcome{Tool: "migrate", Command: "up", Err: errors.New("db down"), Started: time.Now()})
	if code != ExitCommandFailed {
		t.Fatalf("expected default exit %d, got %d", ExitCommandFailed, code)
	}
}
