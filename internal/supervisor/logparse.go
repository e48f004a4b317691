package supervisor

import (
	"strings"
	"time"
)

// projectedCompletionLayout matches the date tokens a "slow node" log line
// carries after the leading "imb" marker: "Wkd Mon DD HH:MM:SS YYYY".
const projectedCompletionLayout = "Mon Jan _2 15:04:05 2006"

// parseProjectedCompletion applies the log-line heuristic from spec.md
// §4.1: the line is only meaningful once its first whitespace token is
// "imb"; the remaining tokens from index 7 onward are the five-token
// projected-completion timestamp.
func parseProjectedCompletion(line string) (time.Time, bool) {
	fields := strings.Fields(line)
	if len(fields) < 12 || fields[0] != "imb" {
		return time.Time{}, false
	}
	t, err := time.Parse(projectedCompletionLayout, strings.Join(fields[7:], " "))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
