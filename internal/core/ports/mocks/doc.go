package mocks

import "github.com/clarity-project/claimpipeline/internal/core/ports"

var _ ports.Store = (*Store)(nil)
