// Package drive uploads memo snapshots to a Google Drive folder.
package drive

import (
	"bytes"
	"context"
	"fmt"

	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const snapshotMimeType = "application/json"

type uploader struct {
	files    *drive.FilesService
	folderID string
}

var _ portssvc.BackupUploader = (*uploader)(nil)

// NewUploader authenticates with a service account key file when
// credentialsFile is set, and with application default credentials otherwise.
func NewUploader(ctx context.Context, credentialsFile, folderID string, opts ...option.ClientOption) (portssvc.BackupUploader, error) {
	if folderID == "" {
		return nil, fmt.Errorf("drive folder id cannot be empty")
	}
	opts = append([]option.ClientOption{option.WithScopes(drive.DriveFileScope)}, opts...)
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &uploader{files: svc.Files, folderID: folderID}, nil
}

func (u *uploader) Upload(ctx context.Context, name string, snapshot []byte) (string, error) {
	file := &drive.File{
		Name:     name,
		MimeType: snapshotMimeType,
		Parents:  []string{u.folderID},
	}
	created, err := u.files.Create(file).
		Media(bytes.NewReader(snapshot)).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive upload of %s failed: %w", name, err)
	}
	return created.Id, nil
}
