package textgen

import (
	"fmt"
	"strings"
)

func isSpanish(language string) bool {
	lowered := strings.ToLower(language)
	return strings.HasPrefix(lowered, "es") || lowered == "spanish"
}

// FallbackNote is the fixed phrase used when text generation is unavailable.
func FallbackNote(language, topic, value string) string {
	if isSpanish(language) {
		return fmt.Sprintf("Okay, entonces... Esta mañana tuve la sensación de que alguien que conozco está interesado en %s en relación a %s.", value, topic)
	}
	return fmt.Sprintf("Okay, so... This morning I had a feeling that someone I know is interested in %s regarding %s.", value, topic)
}

// SafeNote is the fixed phrase used instead of generation when the input
// text fails the safety filter. It references neither input field.
func SafeNote(language string) string {
	if isSpanish(language) {
		return "Esta mañana me desperté pensando en lo interesante que es la magia y cómo puede sorprender a la gente."
	}
	return "This morning I woke up thinking about how interesting magic is and how it can surprise people."
}
