package repositories

import (
	"context"
)

// TxRepositories are the repositories bound to one unit of work. Everything
// written through them commits or rolls back together.
type TxRepositories struct {
	Memos      MemoRepositoryFacade
	BackupJobs BackupJobWriter
}

// UnitOfWork runs fn inside a single transaction. A non-nil error from fn
// rolls the transaction back and is returned unchanged.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error
}
