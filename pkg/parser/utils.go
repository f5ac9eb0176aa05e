package parser

import (
	"path/filepath"
	"regexp"
	"strings"
)

var digitRun = regexp.MustCompile(`\d+`)

// InferAccount returns the longest run of digits in the file name, which is
// how single-account exports carry their account code. Ties go to the
// lexicographically greater run.
func InferAccount(fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	best := ""
	for _, run := range digitRun.FindAllString(base, -1) {
		if len(run) > len(best) || (len(run) == len(best) && run > best) {
			best = run
		}
	}
	return best
}
