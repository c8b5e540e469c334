package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:      newPgxUserRepository(dbPool),
		MemoRepo:      newPgxMemoRepository(dbPool),
		BackupJobRepo: newPgxBackupJobRepository(dbPool),
		UnitOfWork:    newPgxUnitOfWork(dbPool),
	}
}
