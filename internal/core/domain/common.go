package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	CreatedBy     string    `json:"createdBy" db:"created_by"` // UserID Reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt" db:"last_updated_at"`
	LastUpdatedBy string    `json:"lastUpdatedBy" db:"last_updated_by"` // UserID Reference
}

// Actor identifies who performed an action. It is what history entries record.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
