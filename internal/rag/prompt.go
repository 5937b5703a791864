package rag

import (
	"fmt"
	"strings"
)

const (
	// NotFoundAnswer is the reply when the material does not contain the answer.
	NotFoundAnswer = "I don't know from the provided material."

	// NoContextAnswer is the reply when retrieval found nothing; the model is not called.
	NoContextAnswer = "I couldn't retrieve any relevant text from the provided material."
)

const (
	contextSlot  = "{context}"
	questionSlot = "{question}"
)

const defaultTemplate = `You are an assistant answering ONLY from the provided documents.

Context:
{context}

Question:
{question}

Instructions:
- Extract the exact answer (number, percentage, date or phrase) if it is available.
- Always mention the document name and page number for every fact you state.
- If multiple values exist, list them all with their sources.
- If the answer is not in the context, reply exactly: "` + NotFoundAnswer + `"
- If a relevant number is present anywhere in the context, state it as the answer.
- Never say "not explicitly mentioned" when you can see a number in the context.

Answer:
`

// PromptTemplate is an instruction text with a {context} and a {question} slot.
type PromptTemplate struct {
	text string
}

// NewPromptTemplate validates that text has both slots.
func NewPromptTemplate(text string) (*PromptTemplate, error) {
	for _, slot := range []string{contextSlot, questionSlot} {
		if !strings.Contains(text, slot) {
			return nil, fmt.Errorf("prompt template is missing the %s slot", slot)
		}
	}
	return &PromptTemplate{text: text}, nil
}

// DefaultTemplate returns the standard grounding prompt.
func DefaultTemplate() *PromptTemplate {
	return &PromptTemplate{text: defaultTemplate}
}

// Render fills both slots verbatim. Slot markers inside the values are not expanded.
func (t *PromptTemplate) Render(context, question string) string {
	return strings.NewReplacer(contextSlot, context, questionSlot, question).Replace(t.text)
}

// String returns the raw template text.
func (t *PromptTemplate) String() string {
	return t.text
}
