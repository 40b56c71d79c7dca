package query

import (
	"context"
	"errors"
	"fmt"

	"animebase/internal/util"
	"animebase/pkg/ai"
	"animebase/pkg/common"
	"animebase/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
)

const defaultContextTokenBudget = 3000

// Response is the structured answer returned for one query.
type Response struct {
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
}

// RAG is the top-level query pipeline: strategy selection, retrieval,
// context assembly and answer synthesis. Collaborators are injected once at
// startup and shared read-only across queries.
type RAG struct {
	aiClient    ai.GraphAIClient
	retriever   *Retriever
	selector    *StrategySelector
	tokenBudget int
}

// NewRAG creates a RAG pipeline over the given collaborators.
func NewRAG(aiClient ai.GraphAIClient, retriever *Retriever, selector *StrategySelector) *RAG {
	return &RAG{
		aiClient:    aiClient,
		retriever:   retriever,
		selector:    selector,
		tokenBudget: int(util.GetEnvNumeric("RAG_CONTEXT_TOKEN_BUDGET", defaultContextTokenBudget)),
	}
}

// Answer runs the full pipeline for one query. An empty retrieved context is
// not an error: synthesis still runs, and the answer prompt instructs the
// model to say it cannot determine the answer rather than fabricate one.
func (r *RAG) Answer(ctx context.Context, query string) (*Response, error) {
	strategy, err := r.selector.Pick(ctx, query)
	if err != nil {
		return nil, err
	}
	logger.Info("[RAG] Strategy picked", "strategy", strategy.String())

	retrieved, err := r.retriever.Retrieve(ctx, strategy, query)
	if err != nil {
		return nil, err
	}
	logger.Info("[RAG] Context assembled", "contents", retrieved.Len())

	contextText := retrieved.GenerateContext()
	contextText = r.fitToBudget(ctx, query, contextText)

	var resp Response
	err = r.aiClient.GenerateCompletionWithFormat(
		ctx,
		"response",
		"answer with explanation",
		fmt.Sprintf(ai.AnswerPrompt, contextText, query),
		&resp,
		ai.WithTemperature(0.3),
	)
	if err != nil {
		// ErrSynthesis means the model answered with something unusable. A
		// failed call never produced an answer at all, so it stays untagged.
		if errors.Is(err, ai.ErrUnmarshal) {
			return nil, fmt.Errorf("%w: %v", common.ErrSynthesis, err)
		}
		return nil, fmt.Errorf("answer synthesis: %w", err)
	}

	return &resp, nil
}

// fitToBudget summarizes the context around the query when it exceeds the
// token budget. A failed summarization falls back to the raw context rather
// than failing the query.
func (r *RAG) fitToBudget(ctx context.Context, query string, contextText string) string {
	tokens, err := countTokens(contextText)
	if err != nil || tokens <= r.tokenBudget {
		return contextText
	}

	logger.Info("[RAG] Context over budget, summarizing", "tokens", tokens, "budget", r.tokenBudget)
	summary, err := r.aiClient.GenerateCompletion(
		ctx,
		fmt.Sprintf(ai.SummaryPrompt, query, contextText),
		ai.WithTemperature(0.7),
	)
	if err != nil {
		logger.Warn("[RAG] Summarization failed, using raw context", "err", err)
		return contextText
	}
	return summary
}

func countTokens(text string) (int, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
