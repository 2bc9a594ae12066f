package styles

// Severity icons used by toasts, the modal, and the inbox list.
var (
	IconInfo     = "●"
	IconWarning  = "▲"
	IconCritical = "‼"
	IconUnread   = "•"
	IconRead     = " "
)

// LevelIcon maps a normalized level name to its icon.
func LevelIcon(level string) string {
	switch level {
	case "warning":
		return IconWarning
	case "critical":
		return IconCritical
	default:
		return IconInfo
	}
}
