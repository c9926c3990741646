package recommend

import "bytes"

var nonFiniteTokens = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// replaceNonFinite rewrites the bare NaN, Infinity and -Infinity tokens that
// Python's json encoder emits for missing dataframe cells into null, leaving
// string contents untouched. Anything else is passed through for the real
// decoder to judge.
func replaceNonFinite(body []byte) []byte {
	if !containsNonFinite(body) {
		return body
	}
	out := make([]byte, 0, len(body))
	inString := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inString {
			out = append(out, c)
			switch c {
			case '\\':
				if i+1 < len(body) {
					i++
					out = append(out, body[i])
				}
			case '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if tok := nonFiniteAt(body[i:]); tok > 0 {
			out = append(out, "null"...)
			i += tok - 1
			continue
		}
		out = append(out, c)
	}
	return out
}

func containsNonFinite(body []byte) bool {
	return bytes.Contains(body, []byte("NaN")) || bytes.Contains(body, []byte("Infinity"))
}

func nonFiniteAt(b []byte) int {
	for _, tok := range nonFiniteTokens {
		if bytes.HasPrefix(b, tok) {
			return len(tok)
		}
	}
	return 0
}
