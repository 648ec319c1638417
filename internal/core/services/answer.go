package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.Answerer = (*AnswerService)(nil)

// DefaultConfidenceThreshold is the minimum top similarity score below
// which answer generation is refused.
const DefaultConfidenceThreshold = 0.22

// InsufficientEvidenceAnswer is returned verbatim whenever retrieval
// produces nothing or nothing confident enough. Keeping it a fixed
// string makes the refusal detectable by callers and tests.
const InsufficientEvidenceAnswer = "I don't know. The retrieved context is insufficient or too low-confidence to answer."

// answerTemperature keeps generation close to deterministic.
const answerTemperature = 0.1

// AnswerService answers questions grounded in retrieved chunks. Weak
// evidence short-circuits to the fixed refusal without a model call,
// so the LLM only ever sees context the retriever vouched for.
type AnswerService struct {
	retriever driving.Retriever
	llm       driven.LLMService
	prompts   driven.PromptStore
	config    driven.ConfigStore
}

// NewAnswerService creates a new answer service.
func NewAnswerService(
	retriever driving.Retriever,
	llm driven.LLMService,
	prompts driven.PromptStore,
	config driven.ConfigStore,
) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		config:    config,
	}
}

// Ask retrieves evidence for the query and synthesises an answer with
// citations. The retrieved chunks are always returned, refusal or not,
// so callers can show what was considered.
func (s *AnswerService) Ask(ctx context.Context, query string, k int) (*domain.Answer, error) {
	m := s.config.GetInt(driven.ConfigRetrieveM)

	retrieved, err := s.retriever.Retrieve(ctx, query, k, m)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if s.shouldRefuse(retrieved) {
		logger.Debug("Refusing to answer: %d chunks retrieved, none above threshold", len(retrieved))
		return &domain.Answer{
			Text:      InsufficientEvidenceAnswer,
			Retrieved: retrieved,
		}, nil
	}

	system, err := s.prompts.Load(driven.PromptAnswerStrict)
	if err != nil {
		return nil, fmt.Errorf("load prompt: %w", err)
	}

	user := fmt.Sprintf(
		"Answer the user's question using ONLY the context. "+
			"Cite the evidence numerically like [1], [2] where appropriate.\n\n"+
			"Question: %s\n\nContext:\n%s",
		query, formatContext(retrieved),
	)

	text, err := s.llm.Complete(ctx, system, user, driven.CompletionOptions{
		Temperature: answerTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("complete: %v: %w", err, domain.ErrLLMUnavailable)
	}

	return &domain.Answer{
		Text:      strings.TrimSpace(text),
		Citations: buildCitations(retrieved),
		Retrieved: retrieved,
	}, nil
}

// shouldRefuse reports whether the evidence is too weak to answer from.
func (s *AnswerService) shouldRefuse(retrieved []domain.RetrievedChunk) bool {
	if len(retrieved) == 0 {
		return true
	}
	threshold := s.config.GetFloat(driven.ConfigConfidenceThreshold)
	if threshold == 0 {
		threshold = DefaultConfidenceThreshold
	}
	top := retrieved[0].Score
	for _, r := range retrieved[1:] {
		if r.Score > top {
			top = r.Score
		}
	}
	return top < threshold
}

// formatContext renders retrieved chunks as a numbered evidence block.
// The [n] tags line up with the citation indices the prompt asks for.
func formatContext(retrieved []domain.RetrievedChunk) string {
	var b strings.Builder
	for i, ch := range retrieved {
		if i > 0 {
			b.WriteString("\n\n")
		}
		tag := fmt.Sprintf("%s#%d", ch.Filename, ch.Seq)
		if ch.Page != nil {
			tag += fmt.Sprintf(" (p. %d)", *ch.Page)
		}
		fmt.Fprintf(&b, "[%d] %s:\n%s", i+1, tag, ch.Text)
	}
	return b.String()
}

// buildCitations returns one citation per unique (filename, seq, page)
// triple, in retrieval order.
func buildCitations(retrieved []domain.RetrievedChunk) []domain.Citation {
	type key struct {
		filename string
		seq      int
		page     int
	}
	seen := make(map[key]bool, len(retrieved))

	var citations []domain.Citation //nolint:prealloc // dedup shrinks it
	for _, ch := range retrieved {
		k := key{filename: ch.Filename, seq: ch.Seq, page: -1}
		if ch.Page != nil {
			k.page = *ch.Page
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		citations = append(citations, domain.Citation{
			Filename: ch.Filename,
			Seq:      ch.Seq,
			Page:     ch.Page,
		})
	}
	return citations
}
