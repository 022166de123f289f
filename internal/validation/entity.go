package validation

import (
	"strings"

	"github.com/avoronov/goalkeeper/internal/errs"
	"github.com/avoronov/goalkeeper/internal/models"
)

const (
	// MaxTitleLen limits titles and names across all entity kinds.
	MaxTitleLen = 256
	// MaxTextLen limits free-text fields (descriptions, notes, bios).
	MaxTextLen = 64 * 1024
	// MaxAttachmentSize limits a media attachment payload (64 MiB).
	MaxAttachmentSize = 64 << 20
)

// workStatuses are the accepted lifecycle statuses.
var workStatuses = map[models.WorkStatus]bool{
	models.WorkStatusNotStarted: true,
	models.WorkStatusInProgress: true,
	models.WorkStatusCompleted:  true,
	models.WorkStatusPaused:     true,
}

// ValidateEntity rejects malformed payloads before they reach the store or
// the queue. Returns a *errs.ValidationError describing the first problem.
func ValidateEntity(e models.Entity) error {
	switch v := e.(type) {
	case *models.Goal:
		if err := requireTitle("title", v.Title); err != nil {
			return err
		}
		if err := validateProgress(v.Progress); err != nil {
			return err
		}
		if err := validateStatus(v.Status); err != nil {
			return err
		}
		return validateText("description", v.Description)
	case *models.Task:
		if err := requireTitle("title", v.Title); err != nil {
			return err
		}
		if err := validateProgress(v.Progress); err != nil {
			return err
		}
		if err := validateStatus(v.Status); err != nil {
			return err
		}
		return validateText("description", v.Description)
	case *models.Project:
		if err := requireTitle("name", v.Name); err != nil {
			return err
		}
		if err := validateProgress(v.Progress); err != nil {
			return err
		}
		return validateStatus(v.Status)
	case *models.LifeArea:
		return requireTitle("name", v.Name)
	case *models.AssistantProfile:
		return requireTitle("name", v.Name)
	case *models.PersonalProfile:
		if err := requireTitle("display_name", v.DisplayName); err != nil {
			return err
		}
		return validateText("bio", v.Bio)
	case *models.MediaAttachment:
		if err := requireTitle("file_name", v.FileName); err != nil {
			return err
		}
		if v.MimeType == "" || !strings.Contains(v.MimeType, "/") {
			return errs.Validation("mime_type", "must be a type/subtype pair")
		}
		if v.SizeBytes < 0 || v.SizeBytes > MaxAttachmentSize {
			return errs.Validation("size_bytes", "out of range")
		}
		if v.ParentID != "" && v.ParentType == "" {
			return errs.Validation("parent_type", "required when parent_id is set")
		}
		return nil
	default:
		return errs.Validation("object_type", "unknown entity kind")
	}
}

func requireTitle(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errs.Validation(field, "cannot be empty")
	}
	if len(value) > MaxTitleLen {
		return errs.Validation(field, "too long")
	}
	return nil
}

func validateText(field, value string) error {
	if len(value) > MaxTextLen {
		return errs.Validation(field, "too long")
	}
	return nil
}

func validateProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return errs.Validation("progress", "must be between 0 and 100")
	}
	return nil
}

func validateStatus(status models.WorkStatus) error {
	if status == "" {
		return nil // defaults to not_started at the manager boundary
	}
	if !workStatuses[status] {
		return errs.Validation("status", "unknown work status")
	}
	return nil
}
