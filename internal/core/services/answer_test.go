package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// mockRetriever returns scripted chunks.
type mockRetriever struct {
	chunks []domain.RetrievedChunk
	err    error
	lastK  int
	lastM  int
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, k, topM int) ([]domain.RetrievedChunk, error) {
	m.lastK = k
	m.lastM = topM
	return m.chunks, m.err
}

func intPtr(n int) *int { return &n }

func newAnswerFixture(retriever *mockRetriever, llm *mockLLM, cfg mapConfig) *AnswerService {
	if cfg == nil {
		cfg = mapConfig{}
	}
	return NewAnswerService(retriever, llm, mockPrompts{}, cfg)
}

func TestAskRefusesOnEmptyRetrieval(t *testing.T) {
	llm := &mockLLM{answer: "should not be used"}
	svc := newAnswerFixture(&mockRetriever{}, llm, nil)

	answer, err := svc.Ask(context.Background(), "what is this?", 5)
	require.NoError(t, err)

	assert.Equal(t, InsufficientEvidenceAnswer, answer.Text)
	assert.Empty(t, answer.Citations)
	assert.Zero(t, llm.calls, "refusal must not call the model")
}

func TestAskRefusesBelowThreshold(t *testing.T) {
	llm := &mockLLM{answer: "should not be used"}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{
		{Filename: "a.txt", Seq: 0, Text: "weak evidence", Score: 0.10},
		{Filename: "b.txt", Seq: 1, Text: "weaker", Score: 0.05},
	}}
	svc := newAnswerFixture(retriever, llm, nil)

	answer, err := svc.Ask(context.Background(), "question", 5)
	require.NoError(t, err)

	assert.Equal(t, InsufficientEvidenceAnswer, answer.Text)
	assert.Empty(t, answer.Citations)
	assert.Len(t, answer.Retrieved, 2, "retrieved chunks are reported even on refusal")
	assert.Zero(t, llm.calls)
}

func TestAskAnswersAboveThreshold(t *testing.T) {
	llm := &mockLLM{answer: "  The answer is 42. [1]  "}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{
		{DocumentID: "d1", Filename: "guide.pdf", Seq: 3, Page: intPtr(2), Text: "the answer is 42", Score: 0.80},
		{DocumentID: "d2", Filename: "notes.txt", Seq: 0, Text: "irrelevant but close", Score: 0.40},
	}}
	svc := newAnswerFixture(retriever, llm, nil)

	answer, err := svc.Ask(context.Background(), "what is the answer?", 5)
	require.NoError(t, err)

	assert.Equal(t, "The answer is 42. [1]", answer.Text, "model output is trimmed")
	require.Len(t, answer.Citations, 2)
	assert.Equal(t, domain.Citation{Filename: "guide.pdf", Seq: 3, Page: intPtr(2)}, answer.Citations[0])
	assert.Equal(t, domain.Citation{Filename: "notes.txt", Seq: 0}, answer.Citations[1])

	// The evidence block numbers chunks and tags pages.
	assert.Contains(t, llm.lastUser, "what is the answer?")
	assert.Contains(t, llm.lastUser, "[1] guide.pdf#3 (p. 2):\nthe answer is 42")
	assert.Contains(t, llm.lastUser, "[2] notes.txt#0:\nirrelevant but close")
	assert.Contains(t, llm.lastSystem, "provided context")
	assert.InDelta(t, 0.1, llm.lastOpts.Temperature, 1e-9)
}

func TestAskDeduplicatesCitations(t *testing.T) {
	llm := &mockLLM{answer: "answer"}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{
		{Filename: "a.txt", Seq: 0, Text: "first copy", Score: 0.9},
		{Filename: "a.txt", Seq: 0, Text: "second copy", Score: 0.8},
		{Filename: "a.txt", Seq: 1, Text: "different seq", Score: 0.7},
	}}
	svc := newAnswerFixture(retriever, llm, nil)

	answer, err := svc.Ask(context.Background(), "q", 5)
	require.NoError(t, err)

	require.Len(t, answer.Citations, 2)
	assert.Equal(t, 0, answer.Citations[0].Seq)
	assert.Equal(t, 1, answer.Citations[1].Seq)
}

func TestAskThresholdFromConfig(t *testing.T) {
	llm := &mockLLM{answer: "answer"}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{
		{Filename: "a.txt", Seq: 0, Text: "evidence", Score: 0.30},
	}}

	// A stricter configured threshold turns the same evidence into a refusal.
	svc := newAnswerFixture(retriever, llm, mapConfig{
		driven.ConfigConfidenceThreshold: 0.5,
	})

	answer, err := svc.Ask(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Equal(t, InsufficientEvidenceAnswer, answer.Text)
	assert.Zero(t, llm.calls)
}

func TestAskPassesCandidatePoolFromConfig(t *testing.T) {
	llm := &mockLLM{answer: "answer"}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{
		{Filename: "a.txt", Seq: 0, Text: "evidence", Score: 0.9},
	}}
	svc := newAnswerFixture(retriever, llm, mapConfig{
		driven.ConfigRetrieveM: 50,
	})

	_, err := svc.Ask(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, retriever.lastK)
	assert.Equal(t, 50, retriever.lastM)
}

func TestAskRetrieverError(t *testing.T) {
	svc := newAnswerFixture(&mockRetriever{err: errors.New("store offline")}, &mockLLM{}, nil)

	_, err := svc.Ask(context.Background(), "q", 5)
	assert.ErrorContains(t, err, "store offline")
}

func TestAskLLMError(t *testing.T) {
	llm := &mockLLM{err: errors.New("model offline")}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{
		{Filename: "a.txt", Seq: 0, Text: "evidence", Score: 0.9},
	}}
	svc := newAnswerFixture(retriever, llm, nil)

	_, err := svc.Ask(context.Background(), "q", 5)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "model offline")
}
