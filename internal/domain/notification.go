package domain

// NotificationSeverity classifies user-facing notifications.
type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "INFO"
	SeveritySuccess NotificationSeverity = "SUCCESS"
	SeverityWarning NotificationSeverity = "WARNING"
	SeverityError   NotificationSeverity = "ERROR"
)

// Notification is a fire-and-forget user-facing message (the toast analog).
type Notification struct {
	Severity    NotificationSeverity
	Title       string
	Description string
}
