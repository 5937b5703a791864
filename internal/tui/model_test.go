package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
)

type fakeAsker struct {
	questions []string
	err       error
}

func (f *fakeAsker) Ask(_ context.Context, question string) (*models.Answer, error) {
	f.questions = append(f.questions, question)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Answer{
		Question: question,
		Text:     "Net profit grew 18.4%.",
		Sources:  []models.Citation{{Source: "report.pdf", Page: 3}},
	}, nil
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(Model)
}

func submit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := New(context.Background(), &fakeAsker{}, "2 documents")
	assert.Equal(t, "Loading...", m.View())
}

func TestModel_AsksAsynchronously(t *testing.T) {
	asker := &fakeAsker{}
	m := sized(t, New(context.Background(), asker, "2 documents, 14 chunks"))

	m, cmd := submit(t, m, "  What was the net profit growth?  ")
	require.NotNil(t, cmd)
	assert.True(t, m.pending)
	assert.Empty(t, m.input.Value())
	assert.Empty(t, asker.questions, "the service is only called when the command runs")

	msg := cmd()
	require.IsType(t, answerMsg{}, msg)
	assert.Equal(t, []string{"What was the net profit growth?"}, asker.questions)

	next, _ := m.Update(msg)
	m = next.(Model)
	assert.False(t, m.pending)
	require.Len(t, m.turns, 1)
	assert.Equal(t, "Answered from 1 sources.", m.status)

	transcript := m.renderTranscript()
	assert.Contains(t, transcript, "Q: What was the net profit growth?")
	assert.Contains(t, transcript, "Net profit grew 18.4%.")
	assert.Contains(t, transcript, "report.pdf (page 3)")
	assert.Contains(t, m.View(), "2 documents, 14 chunks")
}

func TestModel_IgnoresBlankAndPending(t *testing.T) {
	m := sized(t, New(context.Background(), &fakeAsker{}, ""))

	m, cmd := submit(t, m, "   ")
	assert.Nil(t, cmd)
	assert.False(t, m.pending)

	m, cmd = submit(t, m, "first")
	require.NotNil(t, cmd)
	_, cmd = submit(t, m, "second")
	assert.Nil(t, cmd, "one question at a time")
}

func TestModel_ShowsErrors(t *testing.T) {
	asker := &fakeAsker{err: errors.New("model unavailable")}
	m := sized(t, New(context.Background(), asker, ""))

	m, cmd := submit(t, m, "q")
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, "Error: model unavailable", m.status)
	assert.Contains(t, m.renderTranscript(), "Error: model unavailable")
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		m := New(context.Background(), &fakeAsker{}, "")
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	}
}
