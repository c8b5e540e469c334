package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
)

var (
	testNow    = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	errUpload  = errors.New("upload: 503 service unavailable")
	errStorage = errors.New("connection reset by peer")
)

func fixedClock() time.Time { return testNow }

// seedUser stores an active user created a second after the previous one so
// FindUsers returns them in seeding order.
func seedUser(ctx context.Context, repo portsrepo.UserWriter, role domain.UserRole, email string, seq int) (domain.User, error) {
	created := testNow.Add(time.Duration(seq) * time.Second)
	u := domain.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Name:         email,
		Role:         role,
		Department:   "College of Technologies",
		IsActive:     true,
		AuthProvider: domain.ProviderLocal,
		AuditFields: domain.AuditFields{
			CreatedAt:     created,
			CreatedBy:     "seed",
			LastUpdatedAt: created,
			LastUpdatedBy: "seed",
		},
		Version: 1,
	}
	return u, repo.SaveUser(ctx, u)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []domain.EmailMessage
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg domain.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		for _, to := range msg.To {
			out = append(out, to.Address)
		}
	}
	return out
}

// fakeUploader fails the first failures calls, then succeeds.
type fakeUploader struct {
	mu       sync.Mutex
	failures int
	calls    int
	names    []string
}

func (u *fakeUploader) Upload(ctx context.Context, name string, snapshot []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.calls <= u.failures {
		return "", errUpload
	}
	u.names = append(u.names, name)
	return "ext-" + name, nil
}
