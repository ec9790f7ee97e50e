package dto

import "time"

// IncidentDTO represents an incident in API responses
type IncidentDTO struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Severity      string    `json:"severity"`
	Priority      string    `json:"priority"`
	Category      string    `json:"category"`
	SourceAlertID string    `json:"sourceAlertId"`
	AssignedTo    int64     `json:"assignedTo,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// UpdateIncidentStatusRequest represents an incident status change
type UpdateIncidentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress closed"`
}

// ReassignIncidentRequest represents an incident reassignment
type ReassignIncidentRequest struct {
	AssigneeID int64 `json:"assigneeId" validate:"required,gt=0"`
}
