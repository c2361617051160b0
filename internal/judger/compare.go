package judger

import (
	"strings"
	"unicode"
)

// linesEqual implements the standard comparison policy: split both outputs
// on '\n', strip trailing whitespace per line, compare the sequences.
func linesEqual(got, want string) bool {
	gotLines := strings.Split(got, "\n")
	wantLines := strings.Split(want, "\n")
	if len(gotLines) != len(wantLines) {
		return false
	}
	for i := range gotLines {
		g := strings.TrimRightFunc(gotLines[i], unicode.IsSpace)
		w := strings.TrimRightFunc(wantLines[i], unicode.IsSpace)
		if g != w {
			return false
		}
	}
	return true
}
