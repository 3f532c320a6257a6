// Package transfer provides whole-board import/export for the kanban API.
package transfer

import "time"

// ExportVersion is the current version of the export format.
const ExportVersion = "1.0"

// ExportData represents the complete export structure. Regular exports carry
// one user's tree; admin exports additionally carry the user list and every
// user's boards.
type ExportData struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Users      []ExportUser    `json:"users,omitempty"`
	Projects   []ExportProject `json:"projects"`
	Columns    []ExportColumn  `json:"columns"`
	Tasks      []ExportTask    `json:"tasks"`
}

// ExportUser represents a user for export (no credentials).
type ExportUser struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExportProject represents a project. The ids in an export are only
// referenced by the file itself; imports mint fresh ones.
type ExportProject struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Position    int64     `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExportColumn represents a column referencing its project by export id.
type ExportColumn struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ProjectID string    `json:"project_id"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExportTask represents a task referencing its column by export id.
type ExportTask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ColumnID    string     `json:"column_id"`
	Position    int64      `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ImportError describes a single entity that failed validation or import.
type ImportError struct {
	Entity  string `json:"entity"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Projects int           `json:"projects"`
	Columns  int           `json:"columns"`
	Tasks    int           `json:"tasks"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// AddError records a failed entity.
func (r *ImportResult) AddError(entity, id, message string) {
	r.Errors = append(r.Errors, ImportError{Entity: entity, ID: id, Message: message})
}
