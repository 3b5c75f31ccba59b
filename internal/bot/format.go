package bot

import (
	"fmt"
	"strings"
	"time"

	"fissure_watcher/internal/model"
)

// FormatNotification formats a watcher notification as a Telegram message.
func FormatNotification(summary, body string) string {
	return summary + "\n\n" + body
}

// FormatSettings formats the watcher settings for display.
func FormatSettings(s model.Settings) string {
	var b strings.Builder
	b.WriteString("Current settings:\n")
	fmt.Fprintf(&b, "\nTiers: %s", joinNames(s.Filters.Tiers))
	fmt.Fprintf(&b, "\nMissions: %s", joinNames(s.Filters.Missions))
	fmt.Fprintf(&b, "\nFactions: %s", joinNames(s.Filters.Factions))
	fmt.Fprintf(&b, "\nVoid storms: %s", s.Filters.VoidStorm)
	fmt.Fprintf(&b, "\n\nRefresh every %d s", int64(s.RefreshRate/time.Second))
	fmt.Fprintf(&b, "\nRemind %d s before expiry", int64(s.ExpiryLead/time.Second))
	return b.String()
}

// FormatFissureList formats up to limit fissures with their remaining time.
func FormatFissureList(fissures []model.Fissure, now time.Time, limit int) string {
	if len(fissures) == 0 {
		return "No matching fissures right now."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Fissures (%d):\n", len(fissures))
	for i, f := range fissures {
		if i == limit {
			fmt.Fprintf(&b, "\n…and %d more", len(fissures)-limit)
			break
		}
		fmt.Fprintf(&b, "\n%s (%s) — %s", f, f.Enemy, remaining(f.Expiry.Sub(now)))
	}
	return b.String()
}

func remaining(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	d = d.Round(time.Minute)
	if d < time.Minute {
		return "expires in <1m"
	}
	h, m := int(d.Hours()), int(d.Minutes())%60
	if h > 0 {
		return fmt.Sprintf("expires in %dh%02dm", h, m)
	}
	return fmt.Sprintf("expires in %dm", m)
}

func joinNames[T fmt.Stringer](values []T) string {
	if len(values) == 0 {
		return "none (matches nothing)"
	}
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.String()
	}
	return strings.Join(names, ", ")
}
