package models

import "time"

// WorkStatus is the lifecycle status shared by goals, tasks and projects.
type WorkStatus string

const (
	WorkStatusNotStarted WorkStatus = "not_started"
	WorkStatusInProgress WorkStatus = "in_progress"
	WorkStatusCompleted  WorkStatus = "completed"
	WorkStatusPaused     WorkStatus = "paused"
)

// Goal is a long-running objective, optionally tied to a life area.
type Goal struct {
	SyncMeta
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Notes       string     `json:"notes"`
	Status      WorkStatus `json:"status"`
	Progress    int        `json:"progress"` // 0..100
	LifeAreaID  string     `json:"life_area_id"`
	Tags        []string   `json:"tags"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (g *Goal) ObjectType() ObjectType { return ObjectTypeGoal }

// Task is a unit of work, optionally attached to a goal or project.
type Task struct {
	SyncMeta
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Notes       string     `json:"notes"`
	Status      WorkStatus `json:"status"`
	Progress    int        `json:"progress"` // 0..100
	GoalID      string     `json:"goal_id"`
	ProjectID   string     `json:"project_id"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (t *Task) ObjectType() ObjectType { return ObjectTypeTask }

// Project groups tasks under a life area.
type Project struct {
	SyncMeta
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      WorkStatus `json:"status"`
	Progress    int        `json:"progress"` // 0..100
	LifeAreaID  string     `json:"life_area_id"`
	Keywords    []string   `json:"keywords"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (p *Project) ObjectType() ObjectType { return ObjectTypeProject }

// LifeArea is a top-level category (health, career, ...). At most one area
// per owner carries IsDefault; the manager enforces that atomically.
type LifeArea struct {
	SyncMeta
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"sort_order"`
	IsDefault   bool   `json:"is_default"`
}

func (a *LifeArea) ObjectType() ObjectType { return ObjectTypeLifeArea }

// AssistantProfile configures an assistant persona. Style is a genuinely
// schema-less preference payload and stays an open map on purpose.
type AssistantProfile struct {
	SyncMeta
	Name      string            `json:"name"`
	Tone      string            `json:"tone"`
	Style     map[string]string `json:"style"`
	IsDefault bool              `json:"is_default"`
}

func (p *AssistantProfile) ObjectType() ObjectType { return ObjectTypeAssistantProfile }

// PersonalProfile holds the owner's own profile. Preferences is an open map
// for the same reason as AssistantProfile.Style.
type PersonalProfile struct {
	SyncMeta
	DisplayName string            `json:"display_name"`
	Bio         string            `json:"bio"`
	Timezone    string            `json:"timezone"`
	Preferences map[string]string `json:"preferences"`
}

func (p *PersonalProfile) ObjectType() ObjectType { return ObjectTypePersonalProfile }

// MediaAttachment references an uploaded file attached to another object.
type MediaAttachment struct {
	SyncMeta
	FileName   string     `json:"file_name"`
	MimeType   string     `json:"mime_type"`
	SizeBytes  int64      `json:"size_bytes"`
	Checksum   string     `json:"checksum"`
	URL        string     `json:"url"`
	ParentID   string     `json:"parent_id"`
	ParentType ObjectType `json:"parent_type"`
}

func (m *MediaAttachment) ObjectType() ObjectType { return ObjectTypeMediaAttachment }
