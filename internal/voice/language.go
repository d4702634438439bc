package voice

import "strings"

// languageCodes maps the app's language names to the ISO codes the upstream
// cloning service expects.
var languageCodes = map[string]string{
	"english": "en", "spanish": "es", "french": "fr", "german": "de",
	"italian": "it", "portuguese": "pt", "polish": "pl", "hindi": "hi",
	"arabic": "ar", "japanese": "ja", "chinese": "zh", "korean": "ko",
	"dutch": "nl", "turkish": "tr", "swedish": "sv", "indonesian": "id",
	"filipino": "fil", "vietnamese": "vi", "ukrainian": "uk", "greek": "el",
	"czech": "cs", "finnish": "fi", "romanian": "ro", "danish": "da",
	"bulgarian": "bg", "malay": "ms", "slovak": "sk", "croatian": "hr",
	"classic arabic": "ar", "tamil": "ta", "russian": "ru",
}

// LanguageCode returns the ISO code for a language name, defaulting to "en".
func LanguageCode(language string) string {
	if code, ok := languageCodes[strings.ToLower(language)]; ok {
		return code
	}
	return "en"
}

// SupportedLanguage reports whether the language name is one the app knows.
func SupportedLanguage(language string) bool {
	_, ok := languageCodes[strings.ToLower(language)]
	return ok
}
