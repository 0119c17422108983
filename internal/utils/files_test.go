package utils_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TansyBytes/tidytab-cli/internal/utils"
)

func TestSafeWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	if err := utils.SafeWriteFile(path, []byte("first")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	if err := utils.SafeWriteFile(path, []byte("second")); err != nil {
		t.Fatalf("SafeWriteFile overwrite: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("content = %q, want %q", b, "second")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestCleanedOutputPath(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	got := utils.CleanedOutputPath("/tmp/out", "/data/sales.xlsx", at)
	want := filepath.Join("/tmp/out", "cleaned_20250314_092653_sales.csv")
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}

	got = utils.CleanedOutputPath(".", "noext", at)
	want = "cleaned_20250314_092653_noext.csv"
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestFindRulesFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	rules := filepath.Join(root, utils.RulesFileName)
	if err := os.WriteFile(rules, []byte("columns: {}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dataFile := filepath.Join(nested, "data.csv")
	if err := os.WriteFile(dataFile, []byte("a\n1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := utils.FindRulesFile(dataFile)
	if err != nil {
		t.Fatalf("FindRulesFile: %v", err)
	}
	if got != rules {
		t.Fatalf("found %q, want %q", got, rules)
	}

	if _, err := utils.FindRulesFile(t.TempDir()); err == nil {
		t.Fatal("expected error when no rules file exists")
	}
}
