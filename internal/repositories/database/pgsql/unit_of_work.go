package pgsql

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/middleware"
)

type pgxUnitOfWork struct {
	BaseRepository
}

func newPgxUnitOfWork(pool *pgxpool.Pool) portsrepo.UnitOfWork {
	return &pgxUnitOfWork{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.UnitOfWork = (*pgxUnitOfWork)(nil)

// WithinTx hands fn repositories bound to one transaction and commits when fn succeeds.
func (u *pgxUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.TxRepositories) error) error {
	tx, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := u.Rollback(ctx, tx); rbErr != nil {
			middleware.GetLoggerFromCtx(ctx).Error("Rollback failed", slog.String("error", rbErr.Error()))
		}
	}()

	if err := fn(ctx, portsrepo.TxRepositories{
		Memos:      newPgxMemoRepository(tx),
		BackupJobs: newPgxBackupJobRepository(tx),
	}); err != nil {
		return err
	}
	return u.Commit(ctx, tx)
}
