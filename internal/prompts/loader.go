// Package prompts embeds the templates sent to the text-generation service.
// They live in formfill.json, keyed by name, and are parsed once on first use.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed formfill.json
var promptFile []byte

var (
	loadOnce sync.Once
	loaded   map[string]string
	loadErr  error
)

// Get retrieves a prompt template by key (e.g. "batch-answers").
// Returns an error if the key is not found.
func Get(key string) (string, error) {
	loadOnce.Do(func() {
		if err := json.Unmarshal(promptFile, &loaded); err != nil {
			loadErr = fmt.Errorf("failed to parse embedded prompt file: %w", err)
		}
	})
	if loadErr != nil {
		return "", loadErr
	}

	prompt, exists := loaded[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found", key)
	}
	return prompt, nil
}

// MustGet retrieves a prompt template by key, panicking if not found.
// Use this for prompts that are required for a resolution pass to run at all.
func MustGet(key string) string {
	prompt, err := Get(key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Format replaces template placeholders in the form {{.Key}} with values from
// data. The batch-answers template uses {{.Profile}} and {{.Questions}}.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{.%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}
