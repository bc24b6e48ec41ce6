package toolgateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ResponseFormat names the wire shape an adapter returns. Success detection
// differs per shape: Jira responses signal success by identifier presence,
// REST tracker responses carry an explicit flag.
type ResponseFormat string

const (
	// FormatJira parses Jira-style create responses: {"key": ..., "self": ...}.
	FormatJira ResponseFormat = "jira"
	// FormatRest parses explicit-flag responses: {"success": ..., "id": ..., "url": ...}.
	FormatRest ResponseFormat = "rest"
	// FormatAuto scans conventional success/id/link keys.
	FormatAuto ResponseFormat = "auto"
)

// NormalizeResponse converts a backend's native response into the canonical
// ToolResult shape.
func NormalizeResponse(raw json.RawMessage, format ResponseFormat) ToolResult {
	switch format {
	case FormatJira:
		return parseJira(raw)
	case FormatRest:
		return parseRest(raw)
	default:
		return parseAuto(raw)
	}
}

type jiraResponse struct {
	Key           string   `json:"key"`
	Self          string   `json:"self"`
	ErrorMessages []string `json:"errorMessages"`
}

func parseJira(raw json.RawMessage) ToolResult {
	var resp jiraResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ToolResult{Raw: raw, ErrorDetail: fmt.Sprintf("unparseable jira response: %v", err)}
	}

	// Jira signals success by returning the issue key, not a flag.
	if resp.Key == "" {
		detail := "jira response carried no issue key"
		if len(resp.ErrorMessages) > 0 {
			detail = strings.Join(resp.ErrorMessages, "; ")
		}
		return ToolResult{Raw: raw, ErrorDetail: detail}
	}

	return ToolResult{Success: true, ID: resp.Key, Link: resp.Self, Raw: raw}
}

type restResponse struct {
	Success *bool           `json:"success"`
	ID      json.RawMessage `json:"id"`
	URL     string          `json:"url"`
	Error   string          `json:"error"`
}

func parseRest(raw json.RawMessage) ToolResult {
	var resp restResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ToolResult{Raw: raw, ErrorDetail: fmt.Sprintf("unparseable rest response: %v", err)}
	}

	if resp.Success == nil {
		return ToolResult{Raw: raw, ErrorDetail: "rest response carried no success flag"}
	}
	if !*resp.Success {
		detail := resp.Error
		if detail == "" {
			detail = "backend reported failure"
		}
		return ToolResult{Raw: raw, ErrorDetail: detail}
	}

	return ToolResult{Success: true, ID: scalarString(resp.ID), Link: resp.URL, Raw: raw}
}

var (
	autoIDKeys   = []string{"id", "key", "identifier", "ticket_id", "issue_id"}
	autoLinkKeys = []string{"url", "link", "self", "html_url", "web_url"}
	autoFlagKeys = []string{"success", "ok"}
)

// parseAuto is the generic fallback: an explicit boolean flag wins when
// present, otherwise identifier presence decides.
func parseAuto(raw json.RawMessage) ToolResult {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return ToolResult{Raw: raw, ErrorDetail: fmt.Sprintf("unparseable response: %v", err)}
	}

	result := ToolResult{Raw: raw}
	for _, k := range autoIDKeys {
		if v, ok := m[k]; ok {
			if s := scalarString(v); s != "" {
				result.ID = s
				break
			}
		}
	}
	for _, k := range autoLinkKeys {
		if v, ok := m[k]; ok {
			if s := scalarString(v); s != "" {
				result.Link = s
				break
			}
		}
	}

	for _, k := range autoFlagKeys {
		if v, ok := m[k]; ok {
			var flag bool
			if err := json.Unmarshal(v, &flag); err == nil {
				result.Success = flag
				if !flag && result.ErrorDetail == "" {
					result.ErrorDetail = "backend reported failure"
				}
				return result
			}
		}
	}

	result.Success = result.ID != ""
	if !result.Success {
		result.ErrorDetail = "response carried no recognizable identifier"
	}
	return result
}

// scalarString renders a raw JSON scalar as a string identifier.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}
