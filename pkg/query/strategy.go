package query

import (
	"context"
	"errors"
	"fmt"

	"animebase/pkg/ai"
	"animebase/pkg/common"
)

// Strategy is the retrieval mode chosen for one query. The set is closed:
// dispatch sites switch over it exhaustively and treat anything else as a
// programming error, never as a silent default.
type Strategy int

const (
	// StrategyFast answers with a single embedding lookup against the entity
	// index. The cheap path, for queries that already name what they want.
	StrategyFast Strategy = iota
	// StrategyAssociate discovers the relations connecting the mentioned
	// entities and re-queries with those relation phrases.
	StrategyAssociate
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyFast:
		return "FAST"
	case StrategyAssociate:
		return "ASSOCIATE"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a wire name to a Strategy. Unknown names fail with
// ErrStrategyParse.
func ParseStrategy(raw string) (Strategy, error) {
	switch raw {
	case "FAST":
		return StrategyFast, nil
	case "ASSOCIATE":
		return StrategyAssociate, nil
	default:
		return StrategyFast, fmt.Errorf("%w: %q", common.ErrStrategyParse, raw)
	}
}

type strategyResponse struct {
	Strategy string `json:"strategy" jsonschema:"enum=FAST,enum=ASSOCIATE"`
}

// StrategySelector classifies a free-text query into a retrieval strategy
// via a structured language-model call. It performs no retries; retry policy
// belongs to the caller.
type StrategySelector struct {
	aiClient ai.GraphAIClient
}

// NewStrategySelector creates a StrategySelector over the given AI client.
func NewStrategySelector(aiClient ai.GraphAIClient) *StrategySelector {
	return &StrategySelector{aiClient: aiClient}
}

// Pick returns the retrieval strategy for the given query.
func (s *StrategySelector) Pick(ctx context.Context, query string) (Strategy, error) {
	var resp strategyResponse
	err := s.aiClient.GenerateCompletionWithFormat(
		ctx,
		"strategy",
		"retrieval strategy for the question",
		fmt.Sprintf("Question:\n\n%s", query),
		&resp,
		ai.WithSystemPrompts(ai.StrategyPrompt),
		ai.WithTemperature(0.3),
	)
	if err != nil {
		// Output the decoder could not salvage is a parse failure; everything
		// else is the model call itself failing.
		if errors.Is(err, ai.ErrUnmarshal) {
			return StrategyFast, fmt.Errorf("%w: %v", common.ErrStrategyParse, err)
		}
		return StrategyFast, fmt.Errorf("failed to classify query: %w", err)
	}

	return ParseStrategy(resp.Strategy)
}
