package resolution

import (
	"regexp"
	"strconv"
	"strings"
)

// SentinelNoData is the token the AI collaborator returns verbatim when the
// profile holds no applicable data for a question.
const SentinelNoData = "DATA_NOT_AVAILABLE"

var answerLineRe = regexp.MustCompile(`^Q(\d+):\s*(.*)$`)

// parseBatchResponse extracts per-question answers from a batched reply of
// "Qn: <answer>" lines. Indices are zero-based on return. Lines that do not
// match the format, point outside the question range, or carry the sentinel
// or an empty answer yield nothing; every deviation means "no answer for
// that question", never an error.
func parseBatchResponse(response string, count int) map[int]string {
	answers := make(map[int]string)
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		m := answerLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > count {
			continue
		}
		answer := strings.TrimSpace(m[2])
		if answer == "" || strings.Contains(answer, SentinelNoData) {
			continue
		}
		answers[n-1] = answer
	}
	return answers
}
