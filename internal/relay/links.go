package relay

import "regexp"

// trackPatterns are tried in order; the first match wins.
var trackPatterns = []*regexp.Regexp{
	// https://open.spotify.com/track/<id>, optionally with a locale segment such as /intl-de/.
	// Only open.* share hosts count; other services' /track/ URLs are not catalog links.
	regexp.MustCompile(`https?://open\.[^/\s]+/(?:intl-[A-Za-z-]+/)?track/([A-Za-z0-9]+)`),
	// spotify:track:<id>
	regexp.MustCompile(`[A-Za-z]+:track:([A-Za-z0-9]+)`),
}

// ExtractTrackID returns the first track id referenced by text as a share URL or a URI.
func ExtractTrackID(text string) (string, bool) {
	for _, pattern := range trackPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}
