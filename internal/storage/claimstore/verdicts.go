package claimstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
)

// GetVerdict loads the single verdict attached to a cluster, if any.
func (s *Store) GetVerdict(ctx context.Context, clusterID int64) (*domain.Verdict, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, cluster_id, status, confidence, short_reply, long_reply, evidence, verified_at
		FROM verdicts WHERE cluster_id = $1
	`, clusterID)

	v := &domain.Verdict{}

	var (
		evidenceJSON []byte
		status       string
		verifiedAt   pgtype.Timestamptz
	)

	if err := row.Scan(&v.ID, &v.ClusterID, &status, &v.Confidence, &v.ShortReply, &v.LongReply, &evidenceJSON, &verifiedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("verdict for cluster %d: %w", clusterID, pgx.ErrNoRows)
		}

		return nil, fmt.Errorf("get verdict for cluster %d: %w", clusterID, err)
	}

	if err := json.Unmarshal(evidenceJSON, &v.Evidence); err != nil {
		return nil, fmt.Errorf("decode evidence for cluster %d: %w", clusterID, err)
	}

	v.Status = domain.ParseClaimStatus(status)
	v.VerifiedAt = fromTimestamptzPtr(verifiedAt)

	return v, nil
}

// UpsertVerdict inserts or replaces the verdict for a cluster and keeps
// the owning cluster's verdict_id pointer in sync. humanSet marks a
// verdict set by manual review rather than the verification
// orchestrator; it is neither stored nor checked, so an existing
// verdict, human-set or not, is always replaced.
func (s *Store) UpsertVerdict(ctx context.Context, v *domain.Verdict, humanSet bool) error {
	evidenceJSON, err := json.Marshal(v.Evidence)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}

	row := s.Pool.QueryRow(ctx, `
		INSERT INTO verdicts (cluster_id, status, confidence, short_reply, long_reply, evidence, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cluster_id) DO UPDATE SET
			status = EXCLUDED.status,
			confidence = EXCLUDED.confidence,
			short_reply = EXCLUDED.short_reply,
			long_reply = EXCLUDED.long_reply,
			evidence = EXCLUDED.evidence,
			verified_at = EXCLUDED.verified_at
		RETURNING id
	`, v.ClusterID, string(v.Status), v.Confidence, v.ShortReply, v.LongReply, evidenceJSON, toTimestamptzPtr(v.VerifiedAt))

	var id int64
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("upsert verdict for cluster %d: %w", v.ClusterID, err)
	}

	v.ID = id

	if _, err := s.Pool.Exec(ctx, `UPDATE clusters SET verdict_id = $2 WHERE id = $1`, v.ClusterID, id); err != nil {
		return fmt.Errorf("link verdict to cluster %d: %w", v.ClusterID, err)
	}

	_ = humanSet

	return nil
}
