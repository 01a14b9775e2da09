package repair

import "strings"

// ExtractFencedBlock returns the inner text of the first fenced code block,
// tolerating an optional language tag such as "json" after the opening
// fence. Reports false when no complete fence pair exists.
func ExtractFencedBlock(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]

	// drop the language tag line, if any
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || isFenceTag(tag) {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// RemoveFencedBlocks deletes every complete fenced code block from the
// text, keeping the surrounding prose. Used by the notes extractor, which
// wants commentary without code examples.
func RemoveFencedBlocks(raw string) string {
	var b strings.Builder
	for {
		start := strings.Index(raw, "```")
		if start < 0 {
			break
		}
		end := strings.Index(raw[start+3:], "```")
		if end < 0 {
			break
		}
		b.WriteString(raw[:start])
		raw = raw[start+3+end+3:]
	}
	b.WriteString(raw)
	return strings.TrimSpace(b.String())
}

func isFenceTag(tag string) bool {
	for _, r := range tag {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
