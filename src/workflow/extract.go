package workflow

import (
	"regexp"
	"strings"
)

// priorityWords maps user phrasing to the tracker priority enum.
var priorityWords = []struct {
	word  string
	level string
}{
	{"critical", "highest"},
	{"urgent", "highest"},
	{"blocker", "highest"},
	{"highest", "highest"},
	{"high", "high"},
	{"medium", "medium"},
	{"normal", "medium"},
	{"low", "low"},
	{"trivial", "lowest"},
	{"lowest", "lowest"},
}

var (
	// "create a ticket for ...", "file a bug about ...", "open an issue: ..."
	leadInPattern = regexp.MustCompile(`(?i)^.*?\b(?:ticket|bug|issue)\b\s*(?:for|about|regarding|on|:)?\s*`)
	// trailing priority clause: ", high priority" / " with urgent priority"
	priorityClausePattern = regexp.MustCompile(`(?i)[,;]?\s*(?:with\s+)?\b(critical|urgent|blocker|highest|high|medium|normal|low|trivial|lowest)\s+priority\b\.?`)
	componentPattern      = regexp.MustCompile(`(?i)\bcomponent\s+([a-zA-Z0-9_-]+)`)
)

// ExtractTicketArgs derives domain arguments for the ticket workflow from
// raw user text. The argument builder resolves these against each adapter's
// declared schema, so keys here are domain names, not wire names.
func ExtractTicketArgs(input string) map[string]interface{} {
	args := map[string]interface{}{
		"description": strings.TrimSpace(input),
	}

	working := input

	if m := priorityClausePattern.FindStringSubmatch(working); m != nil {
		for _, pw := range priorityWords {
			if strings.EqualFold(m[1], pw.word) {
				args["priority"] = pw.level
				break
			}
		}
		working = priorityClausePattern.ReplaceAllString(working, "")
	}

	if m := componentPattern.FindStringSubmatch(working); m != nil {
		args["component"] = m[1]
	}

	summary := leadInPattern.ReplaceAllString(working, "")
	summary = strings.TrimSpace(strings.Trim(summary, ".,;: "))
	if summary == "" {
		summary = strings.TrimSpace(working)
	}
	if summary == "" {
		summary = strings.TrimSpace(input)
	}
	args["summary"] = summary

	return args
}
