// Package schema validates tables against YAML-persisted column rules.
// Rules only report violations; they never mutate data or feed the
// cleaning policy.
package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/TansyBytes/tidytab-cli/internal/profile"
	"github.com/TansyBytes/tidytab-cli/internal/table"
	"github.com/TansyBytes/tidytab-cli/internal/utils"
)

// ColumnRule constrains one column. Zero-valued fields are not
// enforced; Nullable distinguishes "unset" from "nulls forbidden"
// through the pointer.
type ColumnRule struct {
	Type     string   `yaml:"type,omitempty"`
	Nullable *bool    `yaml:"nullable,omitempty"`
	Unique   bool     `yaml:"unique,omitempty"`
	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
	Allowed  []string `yaml:"allowed,omitempty"`
}

// Config is one rules file: column name to rule.
type Config struct {
	Columns map[string]ColumnRule `yaml:"columns"`
}

// Violation is one failed rule check.
type Violation struct {
	Column string `json:"column"`
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s: %s", v.Column, v.Rule, v.Detail)
}

// Load reads a rules file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("rules file not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return &c, nil
}

// Save writes the rules file using atomic write.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	return utils.SafeWriteFile(path, data)
}

// Validate checks t against the config. Violations follow the table's
// column order; rules naming columns the table lacks come last, sorted
// by name. An empty result means the table conforms.
func (c *Config) Validate(t *table.Table) []Violation {
	var out []Violation
	seen := make(map[string]bool, len(c.Columns))

	for i := range t.Cols {
		col := &t.Cols[i]
		rule, ok := c.Columns[col.Name]
		if !ok {
			continue
		}
		seen[col.Name] = true
		out = append(out, checkColumn(col, rule)...)
	}

	missing := make([]string, 0)
	for name := range c.Columns {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		out = append(out, Violation{Column: name, Rule: "missing", Detail: "column not present"})
	}
	return out
}

func checkColumn(col *table.Column, rule ColumnRule) []Violation {
	var out []Violation

	if rule.Type != "" {
		want, ok := table.ParseDType(rule.Type)
		if !ok {
			out = append(out, Violation{
				Column: col.Name, Rule: "type",
				Detail: fmt.Sprintf("unknown type %q in rules", rule.Type),
			})
		} else if col.Type != want {
			out = append(out, Violation{
				Column: col.Name, Rule: "type",
				Detail: fmt.Sprintf("inferred %s, want %s", col.Type, want),
			})
		}
	}

	if rule.Nullable != nil && !*rule.Nullable {
		if n := col.NullCount(); n > 0 {
			out = append(out, Violation{
				Column: col.Name, Rule: "nullable",
				Detail: fmt.Sprintf("%d null values", n),
			})
		}
	}

	if rule.Unique {
		distinct := make(map[string]bool)
		nonNull := 0
		for _, cell := range col.Cells {
			if cell.Null {
				continue
			}
			nonNull++
			distinct[cell.Raw] = true
		}
		if dups := nonNull - len(distinct); dups > 0 {
			out = append(out, Violation{
				Column: col.Name, Rule: "unique",
				Detail: fmt.Sprintf("%d duplicate values", dups),
			})
		}
	}

	if rule.Min != nil || rule.Max != nil {
		below, above := 0, 0
		for _, cell := range col.Cells {
			v, ok := table.ParseFloatCell(cell)
			if !ok {
				continue
			}
			if rule.Min != nil && v < *rule.Min {
				below++
			}
			if rule.Max != nil && v > *rule.Max {
				above++
			}
		}
		if below > 0 {
			out = append(out, Violation{
				Column: col.Name, Rule: "min",
				Detail: fmt.Sprintf("%d values below minimum %v", below, *rule.Min),
			})
		}
		if above > 0 {
			out = append(out, Violation{
				Column: col.Name, Rule: "max",
				Detail: fmt.Sprintf("%d values above maximum %v", above, *rule.Max),
			})
		}
	}

	if len(rule.Allowed) > 0 {
		allowed := make(map[string]bool, len(rule.Allowed))
		for _, v := range rule.Allowed {
			allowed[v] = true
		}
		outside := 0
		first := ""
		for _, cell := range col.Cells {
			if cell.Null || allowed[cell.Raw] {
				continue
			}
			if outside == 0 {
				first = cell.Raw
			}
			outside++
		}
		if outside > 0 {
			out = append(out, Violation{
				Column: col.Name, Rule: "allowed",
				Detail: fmt.Sprintf("%d values not in allowed set (first: %q)", outside, first),
			})
		}
	}

	return out
}

// InferConfig builds a starter rules file from a profiled table: the
// inferred type per column, nullability as observed, uniqueness where
// the data shows it, numeric bounds, and the value set of categorical
// columns.
func InferConfig(t *table.Table, rep *profile.Report) *Config {
	cfg := &Config{Columns: make(map[string]ColumnRule, len(rep.Columns))}
	for _, cp := range rep.Columns {
		rule := ColumnRule{Type: cp.Type}
		if cp.Nulls == 0 {
			f := false
			rule.Nullable = &f
		}
		if cp.Unique && cp.NonNull > 1 {
			rule.Unique = true
		}
		if cp.Numeric {
			mn, mx := cp.Min, cp.Max
			rule.Min = &mn
			rule.Max = &mx
		}
		if cp.Type == table.Categorical.String() {
			rule.Allowed = distinctValues(t, cp.Name)
		}
		cfg.Columns[cp.Name] = rule
	}
	return cfg
}

func distinctValues(t *table.Table, name string) []string {
	for i := range t.Cols {
		if t.Cols[i].Name != name {
			continue
		}
		seen := make(map[string]bool)
		var vals []string
		for _, cell := range t.Cols[i].Cells {
			if cell.Null || seen[cell.Raw] {
				continue
			}
			seen[cell.Raw] = true
			vals = append(vals, cell.Raw)
		}
		sort.Strings(vals)
		return vals
	}
	return nil
}
