// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Text truncation, previews, relative times and flag validation
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/harper/threadsearch/internal/core"
)

// truncate caps s at maxLen runes, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// preview drops the title header from combined text and flattens whitespace.
func preview(combined string) string {
	if strings.HasPrefix(combined, core.TitlePrefix) {
		if i := strings.Index(combined, "\n\n"); i >= 0 {
			combined = combined[i+2:]
		}
	}
	combined = strings.ReplaceAll(combined, strings.TrimSpace(core.PostSeparator), " ")
	return core.CleanText(combined)
}

// formatTime renders t relative to now for the past week, then as a date.
func formatTime(t time.Time) string {
	switch age := time.Since(t); {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age/time.Minute))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age/time.Hour))
	case age < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(age/(24*time.Hour)))
	default:
		return t.Format(time.DateOnly)
	}
}

func validatePositiveInt(n int, flag string) error {
	if n < 1 {
		return fmt.Errorf("--%s must be at least 1, got %d", flag, n)
	}
	return nil
}
