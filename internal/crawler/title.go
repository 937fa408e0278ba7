package crawler

import (
	"regexp"
	"strings"
)

// UnspecifiedSubject is used when an event title carries no bracketed
// movie segment.
const UnspecifiedSubject = "unspecified"

var (
	bracketRe    = regexp.MustCompile(`[\[<]([^\]>]*)[\]>]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SplitEventName splits a raw event title like "[Movie A] poster giveaway"
// into the movie title and the remaining event title. The first [...] or
// <...> segment is the movie; without one the movie is UnspecifiedSubject
// and the whole trimmed title becomes the event title. Internal whitespace
// runs in the event title are collapsed to single spaces.
func SplitEventName(full string) (movieTitle, eventTitle string) {
	m := bracketRe.FindStringSubmatchIndex(full)
	if m == nil {
		return UnspecifiedSubject, strings.TrimSpace(full)
	}

	movieTitle = strings.TrimSpace(full[m[2]:m[3]])
	rest := strings.TrimSpace(full[:m[0]] + full[m[1]:])
	return movieTitle, whitespaceRe.ReplaceAllString(rest, " ")
}
