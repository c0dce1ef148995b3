package translator

import (
	"fmt"
	"strings"

	"github.com/malbeclabs/videolake/pkg/translator/prompts"
	"gopkg.in/yaml.v3"
)

const examplesPlaceholder = "{{EXAMPLES}}"

// Example is one worked question/SQL pair shown to the model.
type Example struct {
	Question string `yaml:"question"`
	SQL      string `yaml:"sql"`
}

// LoadExamples parses the embedded examples.yaml.
func LoadExamples() ([]Example, error) {
	data, err := prompts.FS.ReadFile("examples.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read examples.yaml: %w", err)
	}
	var examples []Example
	if err := yaml.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("failed to parse examples.yaml: %w", err)
	}
	for i, ex := range examples {
		if strings.TrimSpace(ex.Question) == "" || strings.TrimSpace(ex.SQL) == "" {
			return nil, fmt.Errorf("example %d is incomplete", i)
		}
	}
	return examples, nil
}

// LoadSystemPrompt returns the embedded system instruction with the worked
// examples rendered in place.
func LoadSystemPrompt() (string, error) {
	data, err := prompts.FS.ReadFile("SYSTEM.md")
	if err != nil {
		return "", fmt.Errorf("failed to read SYSTEM.md: %w", err)
	}
	examples, err := LoadExamples()
	if err != nil {
		return "", err
	}
	return strings.Replace(strings.TrimSpace(string(data)), examplesPlaceholder, renderExamples(examples), 1), nil
}

func renderExamples(examples []Example) string {
	var sb strings.Builder
	for i, ex := range examples {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Вопрос: %q\nSQL: %s", strings.TrimSpace(ex.Question), strings.TrimSpace(ex.SQL))
	}
	return sb.String()
}
