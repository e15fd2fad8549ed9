package upload

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

var windowsDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {},
}

// SanitizeFilename reduces a client-supplied name to a flat ASCII file name
// safe to join onto the upload directory. It may return "".
//
//	SanitizeFilename("My cool movie.mov")   // "My_cool_movie.mov"
//	SanitizeFilename("../../etc/passwd")    // "etc_passwd"
func SanitizeFilename(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(t, name)
	if err != nil {
		return ""
	}
	ascii = strings.NewReplacer("/", " ", `\`, " ").Replace(ascii)
	joined := strings.Join(strings.Fields(ascii), "_")
	clean := strings.Trim(unsafeChars.ReplaceAllString(joined, ""), "._")
	if clean == "" {
		return ""
	}
	if _, ok := windowsDeviceNames[strings.ToUpper(strings.SplitN(clean, ".", 2)[0])]; ok {
		clean = "_" + clean
	}
	return clean
}
