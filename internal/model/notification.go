package model

import "time"

// Notification is an alert addressed to a single user about activity on
// a mandate, typically a mention in a progress update.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// TargetUserID is the user this notification is addressed to.
	TargetUserID int64 `json:"targetUserId"`

	// FromUser is the author of the activity that raised the notification.
	FromUser User `json:"fromUser"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// TaskID and TaskTitle reference the originating mandate.
	TaskID    int64  `json:"taskId"`
	TaskTitle string `json:"taskTitle"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"createdAt"`

	// IsRead indicates whether the target user has opened it.
	IsRead bool `json:"isRead"`
}
