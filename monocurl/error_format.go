package monocurl

import (
	"fmt"
	"strconv"
	"strings"
)

// formatCodeFrame renders the offending line with a caret. source holds the
// single outline line the position refers to.
func formatCodeFrame(source string, pos Position) string {
	if source == "" || pos.Line < 0 {
		return ""
	}

	lineRunes := []rune(source)
	column := pos.Column
	if column <= 0 {
		column = 1
	}
	if column > len(lineRunes)+1 {
		column = len(lineRunes) + 1
	}

	lineLabel := strconv.Itoa(pos.Line + 1)
	gutterPad := strings.Repeat(" ", len(lineLabel))
	caretPad := strings.Repeat(" ", column-1)

	return fmt.Sprintf(
		"  --> line %d, column %d\n %s | %s\n %s | %s^",
		pos.Line+1,
		column,
		lineLabel,
		source,
		gutterPad,
		caretPad,
	)
}
