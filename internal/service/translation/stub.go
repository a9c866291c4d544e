package translation

import (
	"context"
	"sync"
)

// StubBackend — детерминированный бэкенд для тестов и локального запуска без сети.
// Известные фразы берутся из словаря, остальные помечаются префиксом "[lang] ".
type StubBackend struct {
	// Dictionary: [targetLang][sourceText]translatedText
	Dictionary map[string]map[string]string
	// Err, если задан, возвращается на каждый вызов.
	Err error

	mu    sync.Mutex
	calls []string
}

// NewStubBackend создаёт заглушку со словарём по умолчанию.
func NewStubBackend() *StubBackend {
	return &StubBackend{
		Dictionary: map[string]map[string]string{
			"hi": {
				"Error processing image": "छवि संसाधित करने में त्रुटि",
				"Session ended. Thank you for using the Agriculture Assistant.": "सत्र समाप्त। कृषि सहायक का उपयोग करने के लिए धन्यवाद।",
			},
			"en": {
				"कौन से कीट दिखाई दे रहे हैं?": "What pests are visible?",
			},
		},
	}
}

func (s *StubBackend) Translate(_ context.Context, text, _, targetLang string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}
	if dict, ok := s.Dictionary[targetLang]; ok {
		if translated, ok := dict[text]; ok {
			return translated, nil
		}
	}
	return "[" + targetLang + "] " + text, nil
}

// Calls возвращает тексты всех запросов к заглушке по порядку.
func (s *StubBackend) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}
