package proposals

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNumber renders a document number as PREFIX-NNN. Three digits is a
// minimum width, not a cap: sequence 1000 prints as PREFIX-1000.
func FormatNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}

// ParseNumber extracts the sequence from a document number with the given
// prefix. Used to seed the sequence counter from legacy data.
func ParseNumber(prefix, number string) (int64, bool) {
	rest, ok := strings.CutPrefix(number, prefix+"-")
	if !ok {
		return 0, false
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
