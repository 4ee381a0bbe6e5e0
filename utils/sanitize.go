package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans user-provided text of unsafe HTML before storage.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
