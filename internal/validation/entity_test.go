package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/goalkeeper/internal/errs"
	"github.com/avoronov/goalkeeper/internal/models"
)

func TestValidateEntityTask(t *testing.T) {
	tests := []struct {
		name    string
		task    *models.Task
		wantErr string
	}{
		{
			name: "valid task",
			task: &models.Task{Title: "Write report", Progress: 50, Status: models.WorkStatusInProgress},
		},
		{
			name:    "empty title",
			task:    &models.Task{Title: "   "},
			wantErr: "title",
		},
		{
			name:    "progress out of range",
			task:    &models.Task{Title: "t", Progress: 101},
			wantErr: "progress",
		},
		{
			name:    "negative progress",
			task:    &models.Task{Title: "t", Progress: -1},
			wantErr: "progress",
		},
		{
			name:    "unknown status",
			task:    &models.Task{Title: "t", Status: models.WorkStatus("doing")},
			wantErr: "status",
		},
		{
			name:    "oversized description",
			task:    &models.Task{Title: "t", Description: strings.Repeat("x", MaxTextLen+1)},
			wantErr: "description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntity(tt.task)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateEntityAttachment(t *testing.T) {
	valid := &models.MediaAttachment{
		FileName:   "photo.jpg",
		MimeType:   "image/jpeg",
		SizeBytes:  1024,
		ParentID:   "task-1",
		ParentType: models.ObjectTypeTask,
	}
	require.NoError(t, ValidateEntity(valid))

	badMime := &models.MediaAttachment{FileName: "f", MimeType: "jpeg"}
	require.Error(t, ValidateEntity(badMime))

	orphanParent := &models.MediaAttachment{FileName: "f", MimeType: "image/png", ParentID: "x"}
	err := ValidateEntity(orphanParent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent_type")

	tooBig := &models.MediaAttachment{FileName: "f", MimeType: "image/png", SizeBytes: MaxAttachmentSize + 1}
	require.Error(t, ValidateEntity(tooBig))
}

func TestValidateEntityEmptyStatusDefaults(t *testing.T) {
	goal := &models.Goal{Title: "g"}
	require.NoError(t, ValidateEntity(goal))
}

func TestValidateUsername(t *testing.T) {
	require.NoError(t, ValidateUsername("alice_01"))
	require.Error(t, ValidateUsername(""))
	require.Error(t, ValidateUsername("ab"))
	require.Error(t, ValidateUsername("bad name"))
	require.Error(t, ValidateUsername(strings.Repeat("a", 33)))
}

func TestValidatePassword(t *testing.T) {
	require.NoError(t, ValidatePassword("long-enough-password"))
	require.Error(t, ValidatePassword(""))
	require.Error(t, ValidatePassword("short"))
}
