package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplate_Render(t *testing.T) {
	out := DefaultTemplate().Render("From a.pdf (page 1):\nhello", "What is it?")

	assert.Contains(t, out, "Context:\nFrom a.pdf (page 1):\nhello\n\nQuestion:\nWhat is it?\n\nInstructions:")
	assert.Contains(t, out, NotFoundAnswer)
	assert.Contains(t, out, "page number")
	assert.NotContains(t, out, contextSlot)
	assert.NotContains(t, out, questionSlot)
	assert.True(t, strings.HasSuffix(out, "Answer:\n"))
}

func TestPromptTemplate_RenderDoesNotExpandValues(t *testing.T) {
	tpl, err := NewPromptTemplate("C={context} Q={question}")
	require.NoError(t, err)
	assert.Equal(t, "C=see {question} Q=what is {context}?", tpl.Render("see {question}", "what is {context}?"))
	assert.Equal(t, "C={context} Q={question}", tpl.String())
}

func TestNewPromptTemplate_RequiresSlots(t *testing.T) {
	_, err := NewPromptTemplate("only {context}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), questionSlot)

	_, err = NewPromptTemplate("only {question}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), contextSlot)
}
