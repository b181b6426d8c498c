package claimstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
)

// AppendSighting records an append-only sighting of a cluster.
func (s *Store) AppendSighting(ctx context.Context, sighting *domain.Sighting) error {
	if _, err := s.Pool.Exec(ctx, `
		INSERT INTO sightings (cluster_id, source, chat_id, user_id, seen_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sighting.ClusterID, string(sighting.Source), sighting.ChatID, sighting.UserID, toTimestamptz(sighting.SeenAt)); err != nil {
		return fmt.Errorf("append sighting for cluster %d: %w", sighting.ClusterID, err)
	}

	return nil
}

// ListSightings returns up to limit sightings for a cluster, newest first.
func (s *Store) ListSightings(ctx context.Context, clusterID int64, limit int) ([]domain.Sighting, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT cluster_id, source, chat_id, user_id, seen_at
		FROM sightings WHERE cluster_id = $1
		ORDER BY seen_at DESC
		LIMIT $2
	`, clusterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sightings for cluster %d: %w", clusterID, err)
	}
	defer rows.Close()

	var out []domain.Sighting

	for rows.Next() {
		var (
			sighting domain.Sighting
			source   string
			seenAt   pgtype.Timestamptz
		)

		if err := rows.Scan(&sighting.ClusterID, &source, &sighting.ChatID, &sighting.UserID, &seenAt); err != nil {
			return nil, fmt.Errorf("scan sighting for cluster %d: %w", clusterID, err)
		}

		sighting.Source = domain.MessageSource(source)
		sighting.SeenAt = fromTimestamptz(seenAt)
		out = append(out, sighting)
	}

	return out, rows.Err()
}
