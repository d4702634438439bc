// Package safety provides a coarse denylist guard for user-supplied text.
// It is a substring match, not a classifier: no false-negative guarantee is
// made, but nothing that matches ever reaches an external service.
package safety

import "strings"

var denylist = []string{
	"sex", "porn", "nude", "naked", "xxx", "dildo", "vibrator", "nsfw",
	"fuck", "shit", "ass", "dick", "cock", "pussy", "cunt", "whore",
	"bitch", "slut", "horny", "masturbat", "orgas", "nazi", "kill",
	"murder", "suicide", "rape", "racist", "n-word", "nigger",
}

// LikelyInappropriate reports whether text contains any denylisted term,
// case-insensitively. Empty text is permissible.
func LikelyInappropriate(text string) bool {
	if text == "" {
		return false
	}

	lowered := strings.ToLower(text)
	for _, term := range denylist {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
