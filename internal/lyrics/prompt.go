package lyrics

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every drafting call. The section-marker contract is
// what the review UI renders against, so it stays in the system message.
const SystemPrompt = "You are a professional songwriter drafting lyrics for a commissioned custom song. " +
	"Structure the lyrics with section markers chosen from [Intro], [Verse], [Chorus], [Bridge], " +
	"[Instrumental], and [Outro]. Include at least one [Verse] and one [Chorus]. " +
	"Respond with the lyrics only, no commentary."

// PromptInput is everything the drafting prompt is built from.
type PromptInput struct {
	Title          string
	Style          string
	Themes         []string
	ExistingLyrics *string
	Guidance       string
}

// BuildPrompt renders the user message for one drafting call.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write song lyrics for a commission titled %q in the style of %s.\n", in.Title, in.Style)
	if len(in.Themes) > 0 {
		fmt.Fprintf(&b, "Themes to weave in: %s.\n", strings.Join(in.Themes, ", "))
	}
	if in.ExistingLyrics != nil && strings.TrimSpace(*in.ExistingLyrics) != "" {
		b.WriteString("\nRework the following draft rather than starting from scratch:\n")
		b.WriteString(strings.TrimSpace(*in.ExistingLyrics))
		b.WriteString("\n")
	}
	if trimmed := strings.TrimSpace(in.Guidance); trimmed != "" {
		fmt.Fprintf(&b, "\nAdditional guidance from the team: %s\n", trimmed)
	}

	return strings.TrimSpace(b.String())
}
