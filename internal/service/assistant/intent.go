package assistant

import "strings"

// Intent — что пользователь хочет сделать своей репликой.
type Intent int

const (
	IntentContinue Intent = iota
	IntentStop
)

func (i Intent) String() string {
	if i == IntentStop {
		return "stop"
	}
	return "continue"
}

// stopKeywords на обоих языках; сравнение по подстроке в нижнем регистре.
// TODO: "stop" ловит и "nonstop", "stopped"; заменить на разбор по словам, когда появятся другие языки.
var stopKeywords = []string{"stop", "रुक जाओ"}

// ClassifyIntent определяет, просит ли пользователь завершить разговор.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, kw := range stopKeywords {
		if strings.Contains(lower, kw) {
			return IntentStop
		}
	}
	return IntentContinue
}
