package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mixelka/zeronode/pkg/models"
)

// TelegramFormatter formats bot events for Telegram
type TelegramFormatter struct {
	maxLength int
}

// NewTelegramFormatter creates a new Telegram formatter
func NewTelegramFormatter() *TelegramFormatter {
	return &TelegramFormatter{
		maxLength: 4000, // Leave room for markup
	}
}

// FormatDaily formats the result of a daily action
func (f *TelegramFormatter) FormatDaily(account models.Account, res models.DailyResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<b>[%d] %s</b>\n", account.Number, f.escapeHTML(account.Email)))

	if res.CheckedIn {
		if res.CheckInTime != "" {
			sb.WriteString(fmt.Sprintf("Daily login: ok at %s\n", f.escapeHTML(res.CheckInTime)))
		} else {
			sb.WriteString("Daily login: ok\n")
		}
	} else {
		sb.WriteString("Daily login: failed\n")
	}

	switch {
	case !res.TasksFetched:
		sb.WriteString("Missions: could not fetch tasks")
	case len(res.Claimed) == 0 && len(res.FailedClaims) == 0:
		sb.WriteString("Missions: nothing to claim")
	default:
		sb.WriteString(fmt.Sprintf("Missions: %d claimed", len(res.Claimed)))
		if len(res.FailedClaims) > 0 {
			sb.WriteString(fmt.Sprintf(", %d failed", len(res.FailedClaims)))
		}
	}

	return sb.String()
}

// FormatMiningClaimed formats a finalized mining session
func (f *TelegramFormatter) FormatMiningClaimed(account models.Account, points float64) string {
	return fmt.Sprintf("<b>[%d] %s</b>\nMining concluded, claimed session with ~<code>%.2f</code> points",
		account.Number, f.escapeHTML(account.Email), points)
}

// FormatStatus formats the state table of all accounts.
// recent maps an email to its newest activity entries and may be nil.
func (f *TelegramFormatter) FormatStatus(states []*models.AccountState, recent map[string][]*models.Activity, now time.Time) string {
	if len(states) == 0 {
		return "No account activity recorded yet"
	}

	var sb strings.Builder
	sb.WriteString("<b>Accounts</b>\n\n")

	for _, s := range states {
		sb.WriteString(fmt.Sprintf("<b>%s</b>\n", f.escapeHTML(s.Email)))
		sb.WriteString(fmt.Sprintf("Balance: %s\n", FormatBalance(s.LastBalance)))
		sb.WriteString(fmt.Sprintf("Mining: %.2f points, %.2f h\n", s.LastMiningPoints, s.LastElapsedHours))
		sb.WriteString(fmt.Sprintf("Daily: %s\n", FormatAgo(s.LastDailyAt, now)))
		sb.WriteString(fmt.Sprintf("Ping: %s\n", FormatAgo(s.LastPingAt, now)))

		if entries := recent[s.Email]; len(entries) > 0 {
			sb.WriteString("Recent:\n")
			for _, a := range entries {
				sb.WriteString(f.formatActivity(a, now))
			}
		}
		sb.WriteString("\n")
	}

	return f.truncate(strings.TrimRight(sb.String(), "\n"), f.maxLength)
}

func (f *TelegramFormatter) formatActivity(a *models.Activity, now time.Time) string {
	line := fmt.Sprintf("  %s %s, %s", a.Action, a.Status, FormatAgo(&a.CreatedAt, now))
	if a.Status == models.ActivityFailed && a.Detail != "" {
		line += ": <i>" + f.escapeHTML(f.clip(a.Detail, 60)) + "</i>"
	}
	return line + "\n"
}

// clip shortens s to maxLen runes without the truncation footer
func (f *TelegramFormatter) clip(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// FormatBalance renders an optional balance
func FormatBalance(b *float64) string {
	if b == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.2f", *b)
}

// FormatAgo renders an optional timestamp relative to now
func FormatAgo(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	d := now.Sub(*t).Round(time.Minute)
	if d < time.Minute {
		return "just now"
	}
	return d.String() + " ago"
}

// escapeHTML escapes HTML special characters for Telegram
func (f *TelegramFormatter) escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// truncate truncates text to maxLen characters
func (f *TelegramFormatter) truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "\n\n<i>... (truncated)</i>"
}
