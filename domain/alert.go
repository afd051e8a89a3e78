package domain

const (
	AlertLevelDanger  = "danger"
	AlertLevelSuccess = "success"
	AlertLevelInfo    = "info"
)

// Alert is a one-time message shown to the user on the next rendered page.
// Alerts travel between requests as session flashes.
type Alert struct {
	Level   string
	Message string
}
