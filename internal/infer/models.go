package infer

import "sort"

// Task presets. Cleaning advisories run on a small reasoning model;
// chat replies use a slightly larger conversational one.
const (
	DefaultCleanModel = "deepseek-r1:1.5b"
	DefaultChatModel  = "llama3.2:3b"

	TaskClean = "clean"
	TaskChat  = "chat"
)

// ModelInfo is catalog metadata for a local model tag.
type ModelInfo struct {
	Name          string `json:"name"`
	ContextTokens int    `json:"context_tokens"`
	// Notes describes what the model is suited for.
	Notes string `json:"notes,omitempty"`
}

var models = map[string]ModelInfo{
	"deepseek-r1:1.5b": {
		Name:          "deepseek-r1:1.5b",
		ContextTokens: 131072,
		Notes:         "small reasoning model, default for cleaning advisories",
	},
	"llama3.2:3b": {
		Name:          "llama3.2:3b",
		ContextTokens: 131072,
		Notes:         "default for chat replies",
	},
	"llama3.2:1b": {
		Name:          "llama3.2:1b",
		ContextTokens: 131072,
	},
	"llama3:latest": {
		Name:          "llama3:latest",
		ContextTokens: 8192,
	},
	"mistral:7b-instruct": {
		Name:          "mistral:7b-instruct",
		ContextTokens: 8192,
	},
	"phi3:mini-4k-instruct": {
		Name:          "phi3:mini-4k-instruct",
		ContextTokens: 4096,
	},
	"qwen2.5:1.5b": {
		Name:          "qwen2.5:1.5b",
		ContextTokens: 32768,
	},
}

// LookupModel returns catalog metadata and an ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// Catalog returns the known model tags sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RecommendModel maps a task name onto its preset model tag. Unknown
// tasks get the cleaning default.
func RecommendModel(task string) string {
	switch task {
	case TaskChat:
		return DefaultChatModel
	case TaskClean:
		return DefaultCleanModel
	default:
		return DefaultCleanModel
	}
}
