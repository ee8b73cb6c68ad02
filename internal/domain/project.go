package domain

import "time"

// Project groups generated assets under a user-chosen workspace.
type Project struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
