package pipeline

// SupportedLanguages maps accepted language codes to the exact display
// name a request must carry alongside the code.
var SupportedLanguages = map[string]string{
	"es": "Spanish",
	"en": "English",
	"pt": "Portuguese",
	"de": "German",
	"fr": "French",
	"it": "Italian",
	"ko": "Korean",
	"ca": "Catalan",
	"pl": "Polish",
	"ja": "Japanese",
	"ru": "Russian",
	"uk": "Ukrainian",
}
