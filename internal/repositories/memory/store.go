// Package memory keeps every repository in process memory. It backs
// STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
)

// Store holds the tables shared by the repositories of this package.
type Store struct {
	mu    sync.RWMutex
	users map[string]domain.User
	memos map[string]domain.Memo
	jobs  map[string]domain.BackupJob

	// txMu serializes units of work, which also gives FindMemoByIDForUpdate
	// its locking behaviour.
	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]domain.User),
		memos: make(map[string]domain.Memo),
		jobs:  make(map[string]domain.BackupJob),
	}
}

// NewRepositoryProvider wires every repository over one store.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:      &userRepository{store: store},
		MemoRepo:      &memoRepository{store: store},
		BackupJobRepo: &backupJobRepository{store: store},
		UnitOfWork:    &unitOfWork{store: store},
	}
}

type unitOfWork struct {
	store *Store
}

var _ portsrepo.UnitOfWork = (*unitOfWork)(nil)

// undoLog keeps the value each row had before a unit of work first wrote
// it. A nil entry means the row did not exist.
type undoLog struct {
	memos map[string]*domain.Memo
	jobs  map[string]*domain.BackupJob
}

func newUndoLog() *undoLog {
	return &undoLog{
		memos: make(map[string]*domain.Memo),
		jobs:  make(map[string]*domain.BackupJob),
	}
}

// recordMemo must be called with the store lock held. A nil log is a no-op.
func (l *undoLog) recordMemo(table map[string]domain.Memo, memoID string) {
	if l == nil {
		return
	}
	if _, seen := l.memos[memoID]; seen {
		return
	}
	if m, ok := table[memoID]; ok {
		l.memos[memoID] = &m
		return
	}
	l.memos[memoID] = nil
}

func (l *undoLog) recordJob(table map[string]domain.BackupJob, jobID string) {
	if l == nil {
		return
	}
	if _, seen := l.jobs[jobID]; seen {
		return
	}
	if j, ok := table[jobID]; ok {
		l.jobs[jobID] = &j
		return
	}
	l.jobs[jobID] = nil
}

// restore puts back the recorded rows. Rows the unit of work never wrote keep
// whatever other writers stored meanwhile.
func (l *undoLog) restore(s *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, m := range l.memos {
		if m == nil {
			delete(s.memos, id)
			continue
		}
		s.memos[id] = *m
	}
	for id, j := range l.jobs {
		if j == nil {
			delete(s.jobs, id)
			continue
		}
		s.jobs[id] = *j
	}
}

// WithinTx records the rows fn writes and puts them back when fn fails.
// Units of work run one at a time.
func (u *unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.TxRepositories) error) error {
	u.store.txMu.Lock()
	defer u.store.txMu.Unlock()

	undo := newUndoLog()
	err := fn(ctx, portsrepo.TxRepositories{
		Memos:      &memoRepository{store: u.store, undo: undo},
		BackupJobs: &backupJobRepository{store: u.store, undo: undo},
	})
	if err != nil {
		undo.restore(u.store)
	}
	return err
}
