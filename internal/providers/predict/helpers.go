package predict

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// buildForecastPrompt renders a deterministic prompt from the request:
// history is sorted by date and formatted with a fixed layout so identical
// input always yields identical request bytes.
func buildForecastPrompt(req ForecastRequest) string {
	sorted := make([]int, len(req.History))
	for i := range sorted {
		sorted[i] = i
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		return req.History[sorted[a]].Date.Before(req.History[sorted[b]].Date)
	})

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "You are a fundraising analyst. Given the cumulative donation history of the campaign %q (%s) with a goal of %s ETH, forecast cumulative donations for the next %d days.", req.CampaignName, req.CampaignAddress, req.GoalEther, req.Days)
	sb.WriteString(" Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"predictedDonations":[{"date":"YYYY-MM-DD","amount":number}],"goalCompletionDate":"YYYY-MM-DD","confidenceScore":number}`)
	// Product decision carried over from the original prediction service:
	// the forecast is instructed to show the campaign reaching its full
	// goal, which biases the projection toward completion.
	sb.WriteString(". The forecast must show the campaign reaching its full goal.")
	sb.WriteString(" History (date, cumulative ETH):")
	for _, idx := range sorted {
		ev := req.History[idx]
		fmt.Fprintf(sb, " %s=%.6f;", ev.Date.UTC().Format(dateLayout), ev.Amount)
	}
	return sb.String()
}

// firstJSONObject extracts the first balanced JSON object from free-form
// model output, tolerating surrounding prose and markdown code fences.
func firstJSONObject(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func clampConfidence(score float64) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return int(score)
}

func parseForecastDate(s string) (time.Time, bool) {
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if ts, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
