package ports

import (
	"context"

	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
)

// Inspector classifies a domain folder's on-disk artifacts for an expected
// solver phase. It is a pure, idempotent filesystem read with no side
// effects.
//
// The checkpoint alone is not trustworthy: the process can die between
// "solver finished" and "checkpoint written". Cross-checking actual output
// artifacts against the claimed checkpoint state is what makes restart
// safe.
type Inspector interface {
	Inspect(ctx context.Context, folder domain.DomainFolder, phase domain.Phase) (domain.FolderCondition, error)
}
