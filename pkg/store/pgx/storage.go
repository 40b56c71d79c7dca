package pgx

import (
	"context"
	"encoding/json"
	"fmt"

	"animebase/pkg/common"
	"animebase/pkg/logger"
	"animebase/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements store.GraphStorage on PostgreSQL with pgvector
// for the embedding tables. Vector similarity uses the cosine distance
// operator; scores are reported as 1 - distance.
type GraphDBStorage struct {
	conn pgxIConn
}

// NewGraphDBStorage creates a GraphDBStorage over an existing connection or
// pool. pgvector types must be registered on the connection beforehand.
func NewGraphDBStorage(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}

func (s *GraphDBStorage) SaveStoryboard(ctx context.Context, sb common.Storyboard) (int64, error) {
	var id int64
	err := s.conn.QueryRow(
		ctx,
		`INSERT INTO storyboards (episode, frame_number, subtitle, picture_key, role, scene)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		sb.Episode, sb.FrameNumber, sb.Subtitle, sb.PictureKey, sb.Role, sb.Scene,
	).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("failed to save storyboard: %w", err)
	}
	return id, nil
}

func (s *GraphDBStorage) GetStoryboards(ctx context.Context) ([]common.Storyboard, error) {
	rows, err := s.conn.Query(
		ctx,
		`SELECT id, episode, frame_number, subtitle, picture_key, role, scene
		 FROM storyboards
		 WHERE scene IS NOT NULL
		 ORDER BY scene, frame_number`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query storyboards: %w", err)
	}
	defer rows.Close()

	var out []common.Storyboard
	for rows.Next() {
		var sb common.Storyboard
		if err := rows.Scan(&sb.ID, &sb.Episode, &sb.FrameNumber, &sb.Subtitle, &sb.PictureKey, &sb.Role, &sb.Scene); err != nil {
			return nil, fmt.Errorf("failed to scan storyboard: %w", err)
		}
		out = append(out, sb)
	}
	return out, rows.Err()
}

func (s *GraphDBStorage) ClearExtraction(ctx context.Context) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"entity_embedding", "scene_embedding", "entity", "ner"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *GraphDBStorage) SaveEntity(ctx context.Context, record common.EntityRecord, embedding []float32) error {
	content, err := json.Marshal(record.Contents)
	if err != nil {
		return fmt.Errorf("failed to marshal entity contents: %w", err)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(
		ctx,
		`INSERT INTO entity (entity, content)
		 VALUES ($1, $2)
		 ON CONFLICT (entity) DO UPDATE SET content = EXCLUDED.content`,
		record.Entity, content,
	)
	if err != nil {
		return fmt.Errorf("failed to save entity: %w", err)
	}

	// Embeddings are keyed by the entity name; a duplicate label means the
	// vector is already present, not an error.
	_, err = tx.Exec(
		ctx,
		`INSERT INTO entity_embedding (entity, embedding)
		 VALUES ($1, $2)
		 ON CONFLICT (entity) DO NOTHING`,
		record.Entity, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to save entity embedding: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *GraphDBStorage) SaveSceneRelations(ctx context.Context, scene int, relations common.Relations) error {
	payload, err := json.Marshal(relations)
	if err != nil {
		return fmt.Errorf("failed to marshal relations: %w", err)
	}

	_, err = s.conn.Exec(
		ctx,
		`INSERT INTO ner (scene, ner) VALUES ($1, $2)`,
		scene, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save scene relations: %w", err)
	}
	return nil
}

func (s *GraphDBStorage) SaveSceneEmbedding(ctx context.Context, scene int, embedding []float32) error {
	_, err := s.conn.Exec(
		ctx,
		`INSERT INTO scene_embedding (scene, embedding)
		 VALUES ($1, $2)
		 ON CONFLICT (scene) DO NOTHING`,
		scene, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to save scene embedding: %w", err)
	}
	return nil
}

func (s *GraphDBStorage) GetEntities(ctx context.Context) ([]common.EntityRecord, error) {
	rows, err := s.conn.Query(ctx, `SELECT entity, content FROM entity`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var out []common.EntityRecord
	for rows.Next() {
		var record common.EntityRecord
		var content []byte
		if err := rows.Scan(&record.Entity, &content); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		if err := json.Unmarshal(content, &record.Contents); err != nil {
			// One bad row must not sink graph construction; the caller
			// rebuilds from whatever parses.
			logger.Warn("[Store] Skipping entity row", "entity", record.Entity,
				"err", fmt.Errorf("%w: %v", common.ErrMalformedRecord, err))
			continue
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *GraphDBStorage) GetRelations(ctx context.Context) ([]common.RelationRecord, error) {
	rows, err := s.conn.Query(ctx, `SELECT ner FROM ner`)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	defer rows.Close()

	var out []common.RelationRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan relations: %w", err)
		}
		var relations common.Relations
		if err := json.Unmarshal(payload, &relations); err != nil {
			logger.Warn("[Store] Skipping relation row",
				"err", fmt.Errorf("%w: %v", common.ErrMalformedRecord, err))
			continue
		}
		out = append(out, relations.Relations...)
	}
	return out, rows.Err()
}

func (s *GraphDBStorage) NearestEntities(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
	return s.nearest(
		ctx,
		`SELECT entity, 1 - (embedding <=> $1) AS score
		 FROM entity_embedding
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		embedding, k,
	)
}

func (s *GraphDBStorage) NearestScenes(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
	return s.nearest(
		ctx,
		`SELECT scene::text, 1 - (embedding <=> $1) AS score
		 FROM scene_embedding
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		embedding, k,
	)
}

func (s *GraphDBStorage) nearest(ctx context.Context, sql string, embedding []float32, k int) ([]store.Match, error) {
	rows, err := s.conn.Query(ctx, sql, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}
	defer rows.Close()

	var out []store.Match
	for rows.Next() {
		var m store.Match
		if err := rows.Scan(&m.Label, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan vector match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *GraphDBStorage) SaveCommunityReport(ctx context.Context, report common.CommunityReport) (int64, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return -1, fmt.Errorf("failed to marshal community report: %w", err)
	}

	var id int64
	err = s.conn.QueryRow(
		ctx,
		`INSERT INTO community_report (report) VALUES ($1) RETURNING id`,
		payload,
	).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("failed to save community report: %w", err)
	}
	return id, nil
}

func (s *GraphDBStorage) GetCommunityReports(ctx context.Context) ([]common.CommunityReport, error) {
	rows, err := s.conn.Query(ctx, `SELECT id, report FROM community_report ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query community reports: %w", err)
	}
	defer rows.Close()

	var out []common.CommunityReport
	for rows.Next() {
		var id int64
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan community report: %w", err)
		}
		var report common.CommunityReport
		if err := json.Unmarshal(payload, &report); err != nil {
			logger.Warn("[Store] Skipping community report row", "id", id,
				"err", fmt.Errorf("%w: %v", common.ErrMalformedRecord, err))
			continue
		}
		report.ID = id
		out = append(out, report)
	}
	return out, rows.Err()
}
