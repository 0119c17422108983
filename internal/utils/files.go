package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RulesFileName is the schema rules file discovered by walking up from
// a dataset's directory.
const RulesFileName = "tidytab.rules.yaml"

// EnsureDir ensures the provided directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SafeWriteFile writes data to a temp file and atomically renames it into place.
func SafeWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// CleanedOutputPath names the cleaned copy of input inside dir:
// cleaned_<yyyymmdd_hhmmss>_<base>.csv. The cleaned file is always
// CSV, whatever the input format was.
func CleanedOutputPath(dir, input string, now time.Time) string {
	base := filepath.Base(input)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	name := fmt.Sprintf("cleaned_%s_%s.csv", now.Format("20060102_150405"), base)
	return filepath.Join(dir, name)
}

// FindRulesFile looks for tidytab.rules.yaml next to start and then in
// each parent directory. If start is a file the walk begins at its
// directory.
func FindRulesFile(start string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = wd
	}
	info, err := os.Stat(start)
	if err != nil {
		return "", err
	}
	dir := start
	if !info.IsDir() {
		dir = filepath.Dir(start)
	}
	for {
		candidate := filepath.Join(dir, RulesFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}
	return "", errors.New("rules file not found (" + RulesFileName + ")")
}
