package dispatch

import "strings"

// Split breaks text into chunks of at most limit characters, preferring
// paragraph breaks, then sentence ends, then word boundaries. A limit <= 0
// returns the whole text as one chunk. Only a single word longer than the
// limit is ever cut mid-token.
func Split(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if len(paragraph) <= limit {
			chunks = append(chunks, paragraph)
			continue
		}
		chunks = append(chunks, splitSentences(paragraph, limit)...)
	}
	return chunks
}

// splitSentences packs whole sentences into chunks, splitting an oversized
// sentence on word boundaries.
func splitSentences(paragraph string, limit int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, sentence := range sentences(paragraph) {
		if len(sentence) > limit {
			flush()
			chunks = append(chunks, splitWords(sentence, limit)...)
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(sentence) > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flush()
	return chunks
}

// sentences splits on sentence-ending punctuation followed by whitespace,
// keeping the punctuation with its sentence.
func sentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '.', '!', '?':
			if s[i+1] == ' ' || s[i+1] == '\n' {
				out = append(out, strings.TrimSpace(s[start:i+1]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// splitWords packs words into chunks, hard-cutting any single word that
// exceeds the limit on its own.
func splitWords(sentence string, limit int) []string {
	var chunks []string
	var current strings.Builder

	for _, word := range strings.Fields(sentence) {
		for len(word) > limit {
			if current.Len() > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			chunks = append(chunks, word[:limit])
			word = word[limit:]
		}
		if current.Len() > 0 && current.Len()+1+len(word) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
