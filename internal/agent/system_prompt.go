package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

// PromptConfig controls system prompt generation.
type PromptConfig struct {
	AgentName   string
	Now         time.Time
	Tools       string // rendered tool list, empty for none
	ExtraPrompt string
}

// BuildSystemPrompt renders the persona, the current Danish date and time
// and the available tools.
func BuildSystemPrompt(cfg PromptConfig) string {
	var b strings.Builder

	name := cfg.AgentName
	if name == "" {
		name = "Robert"
	}
	fmt.Fprintf(&b, "Du hedder %s og er en dansk stemmerobot. Du er sød, rar og hjælpsom, "+
		"og dine svar er altid super korte og præcise.\n\n", name)

	fmt.Fprintf(&b, "Det er %s.\n", DanishDate(cfg.Now))

	b.WriteString("\nSvar altid med JSON på formen {\"response\": {\"answer\": \"<dit svar>\"}}.\n")
	if cfg.Tools != "" {
		b.WriteString("\nHvis du har brug for et værktøj, så svar i stedet med " +
			"{\"response\": {\"name\": \"<værktøj>\", \"parameters\": {...}}}.\n")
		b.WriteString("Du kan bruge følgende værktøjer:\n\n")
		b.WriteString(cfg.Tools)
	}

	if cfg.ExtraPrompt != "" {
		b.WriteString("\n")
		b.WriteString(cfg.ExtraPrompt)
		b.WriteString("\n")
	}

	return b.String()
}

// DanishDate renders t like "onsdag den 1. maj 2024, klokken 08:00".
func DanishDate(t time.Time) string {
	return monday.Format(t, "Monday den 2. January 2006, klokken 15:04", monday.LocaleDaDK)
}
