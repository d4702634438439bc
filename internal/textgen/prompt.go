package textgen

import "fmt"

// BuildPrompt assembles the generation prompt. The value is named outright;
// the topic only sets the mood and must never appear verbatim in the output.
// That contract lives in the prompt text, not in any filter.
func BuildPrompt(language, topic, value string) string {
	return fmt.Sprintf(`You are a fully awake person who just got ready for the day, recording a quick, casual voice note in %[1]s. You suddenly remembered a weird dream or had a strange passing thought and want to say it out loud before you forget.

Rules:
1. The entire note must be in %[1]s.
2. Tone: awake, calm, casual, like talking to yourself or a friend in the morning.
3. Mention the value (%[2]s) naturally by name, not forced.
4. Do NOT mention the topic (%[3]s); let it guide the mood or situation only.
5. One or two short sentences, at most 15 seconds to read aloud.
6. Curious, chill, or a bit puzzled. No drama.

Use conversational, natural speech for %[1]s, with a few filler words typical for the language. Contractions and incomplete thoughts are fine; keep punctuation relaxed.

Return only the voice note in %[1]s, no additional text, labels, or formatting.`, language, value, topic)
}
