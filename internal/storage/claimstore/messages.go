package claimstore

import (
	"context"
	"fmt"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
)

// SaveMessage inserts an ingested message and returns its id.
func (s *Store) SaveMessage(ctx context.Context, msg *domain.Message) (int64, error) {
	embedding := msg.Embedding
	if embedding == nil {
		embedding = []float32{}
	}

	row := s.Pool.QueryRow(ctx, `
		INSERT INTO messages (external_id, text, source, chat_id, user_id, received_at, is_claim, canonical_text, cluster_id, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, msg.ExternalID, msg.Text, string(msg.Source), msg.ChatID, msg.UserID, toTimestamptz(msg.ReceivedAt), msg.IsClaim, msg.CanonicalText, msg.ClusterID, embedding)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("save message: %w", err)
	}

	return id, nil
}
