package assistant

import "strings"

// Language — язык общения с пользователем. Модель всегда работает на родном (английском) языке.
type Language string

const (
	LanguageNative    Language = "en"
	LanguageSecondary Language = "hi"
)

// secondaryMarker — подстрока в подсказке локали, включающая второй язык ("hi", "hi-IN").
const secondaryMarker = "hi"

// ParseLanguage выводит язык из подсказки локали. Всё, что не содержит маркер второго языка, — родной язык.
func ParseLanguage(localeHint string) Language {
	if strings.Contains(strings.ToLower(localeHint), secondaryMarker) {
		return LanguageSecondary
	}
	return LanguageNative
}

// Code — ISO 639-1 код для переводчика.
func (l Language) Code() string { return string(l) }

// Locale — BCP 47 тег для синтеза речи.
func (l Language) Locale() string {
	if l == LanguageSecondary {
		return "hi-IN"
	}
	return "en-US"
}
