package answer

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// ContextSeparator joins retrieved chunk texts inside the prompt.
const ContextSeparator = "---"

// DefaultPromptTemplate asks for a JSON object with answer, contexts and
// reasoning keys. The indentation and the example object are part of the
// contract with the model and must not be reformatted.
const DefaultPromptTemplate = `
    You are a helpful movie plot assistant. Based on the following context, please answer the user's question.

    Your response MUST be a single JSON object with the following three keys:
    - "answer": A natural language answer to the question.
    - "contexts": A list of the retrieved plot snippets you used.
    - "reasoning": A short explanation of how you formed the answer from the context.

    Your response MUST be a single JSON object. Follow the structure of this example:
    {
    "answer": "A natural language answer to the question.",
    "contexts": [
        "The first retrieved plot snippet...",
        "The second retrieved plot snippet..."
    ],
    "reasoning": "A short explanation of how you formed the answer from the context."
    }


    CONTEXT:
    ---
    {{.Context}}
    ---

    QUESTION:
    {{.Question}}
    `

type promptData struct {
	Context  string
	Question string
}

// PromptBuilder renders the question and retrieved contexts into the LLM prompt.
type PromptBuilder struct {
	tmpl *template.Template
}

func NewPromptBuilder(text string) (*PromptBuilder, error) {
	tmpl, err := template.New("prompt").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// DefaultPromptBuilder returns the builder for DefaultPromptTemplate.
func DefaultPromptBuilder() *PromptBuilder {
	return &PromptBuilder{tmpl: template.Must(template.New("prompt").Parse(DefaultPromptTemplate))}
}

// LoadPromptBuilder reads a template file; an empty path selects the default prompt.
func LoadPromptBuilder(path string) (*PromptBuilder, error) {
	if path == "" {
		return DefaultPromptBuilder(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return NewPromptBuilder(string(data))
}

func (b *PromptBuilder) Build(question string, contexts []string) (string, error) {
	var sb strings.Builder
	data := promptData{
		Context:  strings.Join(contexts, ContextSeparator),
		Question: question,
	}
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}
