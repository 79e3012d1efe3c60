package generator

import "strings"

// AnswerKeyMarker is the literal heading the generator is instructed to
// emit before the answer key.
const AnswerKeyMarker = "ANSWER KEY:"

// MissingKeyPlaceholder is returned as the answer key when the marker
// is absent from the generated text.
const MissingKeyPlaceholder = "Answer key was not clearly provided by the generator."

// Split divides generated text into the student-facing worksheet body
// and the separately distributable answer key. The marker is located
// case-insensitively; if it is absent the whole text becomes the body
// and the key degrades to a placeholder. Split never fails, and
// splitting a returned body again yields the same body with the
// placeholder key.
func Split(raw string) (body string, answerKey string) {
	idx := indexFold(raw, AnswerKeyMarker)
	if idx < 0 {
		return strings.TrimSpace(raw), MissingKeyPlaceholder
	}
	return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx:])
}

// indexFold returns the byte index of the first case-insensitive
// occurrence of the ASCII marker in s, or -1.
func indexFold(s, marker string) int {
	for i := 0; i+len(marker) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(marker)], marker) {
			return i
		}
	}
	return -1
}
