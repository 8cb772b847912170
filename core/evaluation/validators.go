package evaluation

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Texts of the numeric min/max rules, keyed as the english translations key them.
// String lengths and item counts keep their default messages.
var rangeTexts = map[string]string{
	"min-number": "{0} must be at least {1}",
	"max-number": "{0} must be at most {1}",
}

// InitValidators registers the score range translations.
// Ranges are the min/max tags on the rubric structs; values out of range are rejected, never clamped.
// It must run after core.InitValidators, which registers the default min/max translations.
func InitValidators(_ *validator.Validate, translator ut.Translator) {
	for key, text := range rangeTexts {
		_ = translator.Add(key, text, true)
	}
}
