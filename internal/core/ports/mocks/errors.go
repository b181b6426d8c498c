package mocks

import pipelineerrors "github.com/clarity-project/claimpipeline/internal/core/errors"

// Re-exported sentinels that the mock Store returns, so callers can
// errors.Is against them. claimstore.Store reports a missing row as a
// wrapped pgx.ErrNoRows instead and never returns ErrHumanVerdictLocked.
var (
	ErrNotFound           = pipelineerrors.ErrNotFound
	ErrHumanVerdictLocked = pipelineerrors.ErrHumanVerdictLocked
)
