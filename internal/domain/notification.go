package domain

// NotificationLevel classifies a user-visible notification.
type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
)

// Notification is a dismissible message raised by the workflow.
type Notification struct {
	Level   NotificationLevel
	Title   string
	Message string
}
