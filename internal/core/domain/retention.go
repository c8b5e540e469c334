package domain

import "fmt"

// RetentionPolicy decides what happens to a submission once an admin has
// decided on it and its notifications and copies are stored.
type RetentionPolicy string

const (
	// RetentionDelete removes the submission row.
	RetentionDelete RetentionPolicy = "delete"
	// RetentionArchive keeps the submission in the sender's archived folder.
	RetentionArchive RetentionPolicy = "archive"
)

func ParseRetentionPolicy(s string) (RetentionPolicy, error) {
	switch p := RetentionPolicy(s); p {
	case RetentionDelete, RetentionArchive:
		return p, nil
	case "":
		return RetentionDelete, nil
	default:
		return "", fmt.Errorf("unknown retention policy %q", s)
	}
}
