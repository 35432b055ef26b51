package speech

import (
	"encoding/xml"
	"strings"
	"unicode"
)

const speakTag = "<speak"

// IsSSML reports whether text is already an SSML document, i.e. its trimmed
// form opens with a <speak> element (case-insensitive, attributes allowed).
func IsSSML(text string) bool {
	t := strings.TrimSpace(text)
	if len(t) <= len(speakTag) || !strings.EqualFold(t[:len(speakTag)], speakTag) {
		return false
	}
	next := rune(t[len(speakTag)])
	return next == '>' || next == '/' || unicode.IsSpace(next)
}

// BuildSSML wraps plain text in a document that selects voice.
func BuildSSML(text, voice, lang string) string {
	var b strings.Builder
	b.WriteString(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="`)
	escape(&b, lang)
	b.WriteString(`"><voice name="`)
	escape(&b, voice)
	b.WriteString(`">`)
	escape(&b, text)
	b.WriteString(`</voice></speak>`)
	return b.String()
}

func escape(b *strings.Builder, s string) {
	_ = xml.EscapeText(b, []byte(s))
}
