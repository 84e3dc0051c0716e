package models

import "time"

type Todo struct {
	ID          string
	Number      string
	Title       string
	Description string
	Status      string
	IsCompleted bool
	DueDate     *time.Time
	AssigneeID  *string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
