package translation

import (
	"unicode"
	"unicode/utf8"
)

// SplitChunks режет текст на куски не длиннее limit символов (рун), только по пробельным символам.
// Пробелы сохраняются как есть, поэтому strings.Join(chunks, "") == text.
// Слово длиннее limit не разрывается и становится отдельным куском.
func SplitChunks(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    []rune
	)
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}

	for _, tok := range tokenize(text) {
		if len(cur)+len(tok) <= limit {
			cur = append(cur, tok...)
			continue
		}
		flush()
		if len(tok) <= limit {
			cur = append(cur, tok...)
			continue
		}
		if !unicode.IsSpace(tok[0]) {
			// длинное слово целиком
			chunks = append(chunks, string(tok))
			continue
		}
		// длинную серию пробелов можно резать где угодно
		for len(tok) > limit {
			chunks = append(chunks, string(tok[:limit]))
			tok = tok[limit:]
		}
		cur = append(cur, tok...)
	}
	flush()
	return chunks
}

// tokenize разбивает текст на чередующиеся серии непробельных и пробельных символов.
func tokenize(text string) [][]rune {
	var (
		tokens [][]rune
		cur    []rune
		space  bool
	)
	for i, r := range []rune(text) {
		isSpace := unicode.IsSpace(r)
		if i > 0 && isSpace != space {
			tokens = append(tokens, cur)
			cur = nil
		}
		space = isSpace
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		tokens = append(tokens, cur)
	}
	return tokens
}
