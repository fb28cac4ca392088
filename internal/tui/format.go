package tui

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/felixgeelhaar/fctl/internal/domain/doctor"
	"github.com/felixgeelhaar/fctl/internal/domain/install"
)

var titleCaser = cases.Title(language.English)

// DisplayName turns a kebab-case identifier into a human heading,
// e.g. "system-update" becomes "System Update".
func DisplayName(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "-", " "))
}

// SeverityIcon returns a display icon for a doctor check severity.
func SeverityIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return "✓"
	case doctor.SeverityWarn:
		return "⚠"
	case doctor.SeverityFail:
		return "✗"
	default:
		return "○"
	}
}

// OutcomeIcon returns a display icon for an installer step outcome.
func OutcomeIcon(o install.Outcome) string {
	switch o {
	case install.OutcomeApplied, install.OutcomeSatisfied:
		return "✓"
	case install.OutcomeSkipped:
		return "-"
	case install.OutcomeFailed:
		return "✗"
	default:
		return "○"
	}
}

// FormatAge renders a timestamp as a rough human-readable age.
func FormatAge(t time.Time) string {
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		mins := int(age.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	case age < 24*time.Hour:
		hours := int(age.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case age < 7*24*time.Hour:
		days := int(age.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		weeks := int(age.Hours() / (24 * 7))
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}
}

// FormatDuration trims a duration to millisecond precision for display.
func FormatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
