package wrangler

// StripJSONC blanks // and /* */ comments out of src and removes trailing
// commas, leaving valid JSON. The walk is character-by-character with
// explicit string and escape state: a regex cannot tell a comment opener
// from the same bytes inside a string value (route patterns like
// "example.com/*" are common in wrangler configs). Blanked characters are
// replaced with spaces and newlines are kept, so byte offsets and line
// numbers in the output still match the input.
func StripJSONC(src []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)
	out := make([]byte, len(src))
	copy(out, src)

	state := stateNormal
	escaped := false
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch state {
		case stateNormal:
			switch {
			case c == '"':
				state = stateString
			case c == '/' && i+1 < len(out) && out[i+1] == '/':
				out[i] = ' '
				state = stateLineComment
			case c == '/' && i+1 < len(out) && out[i+1] == '*':
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stateBlockComment
			}
		case stateString:
			if escaped {
				escaped = false
				break
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
			} else {
				out[i] = ' '
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stateNormal
			} else if c != '\n' {
				out[i] = ' '
			}
		}
	}
	return scrubTrailingCommas(out)
}

// scrubTrailingCommas blanks any comma whose next non-whitespace byte
// closes an object or array. JSONC tolerates them, encoding/json does not.
func scrubTrailingCommas(b []byte) []byte {
	inString := false
	escaped := false
	for i := 0; i < len(b); i++ {
		c := b[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(b) && (b[j] == ' ' || b[j] == '\t' || b[j] == '\r' || b[j] == '\n') {
				j++
			}
			if j < len(b) && (b[j] == '}' || b[j] == ']') {
				b[i] = ' '
			}
		}
	}
	return b
}
