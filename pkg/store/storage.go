package store

import (
	"context"

	"animebase/pkg/common"
)

// Match is one nearest-neighbor hit from a vector search: the embedded row's
// label and its cosine similarity against the query vector, in [-1, 1].
type Match struct {
	Label string
	Score float64
}

// GraphStorage defines the persistence contract for the knowledge base: the
// storyboard rows produced by ingestion, the extraction results the graph is
// built from, the vector-indexed embeddings, and the downstream community
// reports.
type GraphStorage interface {
	// SaveStoryboard inserts one subtitle-bearing frame row.
	SaveStoryboard(ctx context.Context, sb common.Storyboard) (int64, error)
	// GetStoryboards returns all frame rows with a scene assignment, ordered
	// by scene then frame number.
	GetStoryboards(ctx context.Context) ([]common.Storyboard, error)

	// ClearExtraction wipes the entity, ner and embedding tables ahead of a
	// full re-extraction, in one transaction.
	ClearExtraction(ctx context.Context) error
	// SaveEntity persists one canonical entity with its aggregated contents
	// and its embedding. Duplicate labels are treated as already present.
	SaveEntity(ctx context.Context, record common.EntityRecord, embedding []float32) error
	// SaveSceneRelations persists the relations extracted from one scene.
	SaveSceneRelations(ctx context.Context, scene int, relations common.Relations) error
	// SaveSceneEmbedding persists the embedding of one scene script.
	// Duplicate scenes are treated as already present.
	SaveSceneEmbedding(ctx context.Context, scene int, embedding []float32) error

	// GetEntities returns every persisted entity record.
	GetEntities(ctx context.Context) ([]common.EntityRecord, error)
	// GetRelations returns every persisted relation across all scenes.
	GetRelations(ctx context.Context) ([]common.RelationRecord, error)

	// NearestEntities returns the k entities whose embeddings are closest to
	// the query vector, best first.
	NearestEntities(ctx context.Context, embedding []float32, k int) ([]Match, error)
	// NearestScenes returns the k scenes whose script embeddings are closest
	// to the query vector, best first. Labels are scene identifiers.
	NearestScenes(ctx context.Context, embedding []float32, k int) ([]Match, error)

	// SaveCommunityReport persists one community report.
	SaveCommunityReport(ctx context.Context, report common.CommunityReport) (int64, error)
	// GetCommunityReports returns all persisted community reports.
	GetCommunityReports(ctx context.Context) ([]common.CommunityReport, error)
}
