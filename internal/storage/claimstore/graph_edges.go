package claimstore

import (
	"context"
	"fmt"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
)

// AddGraphEdge upserts an undirected edge, accumulating weight on conflict
// to mirror the in-memory memory graph's commutative, idempotent-in-
// existence semantics.
func (s *Store) AddGraphEdge(ctx context.Context, e domain.GraphEdge) error {
	a, b := e.Key()

	if _, err := s.Pool.Exec(ctx, `
		INSERT INTO graph_edges (cluster_a, cluster_b, weight, relationship)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cluster_a, cluster_b) DO UPDATE SET
			weight = graph_edges.weight + EXCLUDED.weight,
			relationship = EXCLUDED.relationship
	`, a, b, e.Weight, e.Relationship); err != nil {
		return fmt.Errorf("add graph edge (%d,%d): %w", a, b, err)
	}

	return nil
}

// ListGraphEdges returns every persisted edge, used to rebuild the
// in-memory memory graph at startup.
func (s *Store) ListGraphEdges(ctx context.Context) ([]domain.GraphEdge, error) {
	rows, err := s.Pool.Query(ctx, `SELECT cluster_a, cluster_b, weight, relationship FROM graph_edges`)
	if err != nil {
		return nil, fmt.Errorf("list graph edges: %w", err)
	}
	defer rows.Close()

	var out []domain.GraphEdge

	for rows.Next() {
		var e domain.GraphEdge
		if err := rows.Scan(&e.ClusterA, &e.ClusterB, &e.Weight, &e.Relationship); err != nil {
			return nil, fmt.Errorf("scan graph edge: %w", err)
		}

		out = append(out, e)
	}

	return out, rows.Err()
}
