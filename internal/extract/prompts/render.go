package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

const (
	exampleStart = "```\n{"
	exampleEnd   = "}\n```"
)

// EscapeExample doubles the braces of a fenced JSON example embedded in an
// instruction template. FString formatting treats "{{" and "}}" as literal
// braces, so the example payload survives rendering while the {input} slot
// outside the fence keeps working.
func EscapeExample(template string) string {
	start := strings.Index(template, exampleStart)
	if start < 0 {
		return template
	}
	end := strings.Index(template[start:], exampleEnd)
	if end < 0 {
		return template
	}
	end += start + len(exampleEnd)

	example := template[start:end]
	escaped := strings.ReplaceAll(example, "{", "{{")
	escaped = strings.ReplaceAll(escaped, "}", "}}")
	return template[:start] + escaped + template[end:]
}

// RenderInput binds the user input to the template's single {input} slot
// via the Eino prompt component and returns the rendered text.
func RenderInput(ctx context.Context, template, input string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.UserMessage(template),
	)
	msgs, err := tpl.Format(ctx, map[string]any{"input": input})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("render prompt: empty result")
	}
	return msgs[0].Content, nil
}
