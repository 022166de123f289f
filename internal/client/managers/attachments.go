package managers

import (
	"context"
	"fmt"
	"io"

	"github.com/avoronov/goalkeeper/internal/crypto"
	"github.com/avoronov/goalkeeper/internal/models"
)

// MediaAttachmentManager is the typed surface for media attachments.
// Attachment metadata syncs like any other object; the binary content itself
// lives wherever URL points and is not transferred by the engine.
type MediaAttachmentManager struct {
	base
}

// NewMediaAttachmentManager creates a media attachment manager.
func NewMediaAttachmentManager(deps Deps) *MediaAttachmentManager {
	return &MediaAttachmentManager{base: newBase(deps)}
}

// Attach stores attachment metadata under a parent object and queues it.
func (m *MediaAttachmentManager) Attach(ctx context.Context, ownerID string, attachment *models.MediaAttachment) error {
	return m.create(ctx, attachment, ownerID, models.PriorityNormal)
}

// AttachContent digests content to fill Checksum and SizeBytes, then stores
// the metadata like Attach.
func (m *MediaAttachmentManager) AttachContent(ctx context.Context, ownerID string, attachment *models.MediaAttachment, content io.Reader) error {
	sum, size, err := crypto.Digest(content)
	if err != nil {
		return fmt.Errorf("failed to digest attachment content: %w", err)
	}
	attachment.Checksum = sum
	attachment.SizeBytes = size
	return m.Attach(ctx, ownerID, attachment)
}

// Verify checks content against the attachment's recorded checksum.
func (m *MediaAttachmentManager) Verify(attachment *models.MediaAttachment, content io.Reader) error {
	return crypto.VerifyDigest(content, attachment.Checksum)
}

// Get returns an attachment by id, soft-deleted included.
func (m *MediaAttachmentManager) Get(ctx context.Context, id string) (*models.MediaAttachment, error) {
	e, err := m.store.GetObject(ctx, models.ObjectTypeMediaAttachment, id)
	if err != nil {
		return nil, err
	}
	return e.(*models.MediaAttachment), nil
}

// ListByParent returns live attachments under a parent object.
func (m *MediaAttachmentManager) ListByParent(ctx context.Context, parentType models.ObjectType, parentID string) ([]*models.MediaAttachment, error) {
	entities, err := m.store.QueryObjects(ctx, models.ObjectTypeMediaAttachment, func(e models.Entity) bool {
		attachment := e.(*models.MediaAttachment)
		return attachment.ParentType == parentType && attachment.ParentID == parentID
	})
	if err != nil {
		return nil, err
	}
	attachments := make([]*models.MediaAttachment, 0, len(entities))
	for _, e := range entities {
		attachments = append(attachments, e.(*models.MediaAttachment))
	}
	return attachments, nil
}

// Detach soft-deletes the attachment and queues the remote delete.
func (m *MediaAttachmentManager) Detach(ctx context.Context, id string) error {
	return m.remove(ctx, models.ObjectTypeMediaAttachment, id)
}
