package export

import (
	"strings"
	"time"
)

// StampLayout formats the $STAMP token.
const StampLayout = "20060102_150405"

// ArtifactBaseName renders the export naming template. Unknown tokens expand
// to nothing and $$ escapes a literal dollar. An empty or fully-sanitized
// result falls back to a stamp-only name so the artifact always has a base.
func ArtifactBaseName(template, title string, when time.Time) string {
	template = strings.TrimSpace(template)
	values := map[string]string{
		"STAMP":      when.Format(StampLayout),
		"TITLE":      sanitizeName(title),
		"SAFE_TITLE": safeFileSlug(title),
	}
	if template == "" {
		template = "montage_$STAMP"
	}
	base := sanitizeName(applyTemplate(template, values))
	if base == "" {
		base = "montage_" + when.Format(StampLayout)
	}
	return base
}

func applyTemplate(template string, values map[string]string) string {
	var builder strings.Builder
	for i := 0; i < len(template); {
		ch := template[i]
		if ch != '$' {
			builder.WriteByte(ch)
			i++
			continue
		}

		if i+1 < len(template) && template[i+1] == '$' {
			builder.WriteByte('$')
			i += 2
			continue
		}

		j := i + 1
		for j < len(template) && isTokenByte(template[j]) {
			j++
		}
		if j == i+1 {
			builder.WriteByte('$')
			i++
			continue
		}

		token := template[i+1 : j]
		if val, ok := values[token]; ok {
			builder.WriteString(val)
		}
		i = j
	}
	return builder.String()
}

func isTokenByte(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
		return true
	}
	return false
}

func sanitizeName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var builder strings.Builder
	lastUnderscore := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastUnderscore = false
		case r == '-' || r == '.':
			builder.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				builder.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	result := strings.Trim(builder.String(), "_.-")
	if len(result) > 150 {
		result = result[:150]
	}
	return result
}

func safeFileSlug(value string) string {
	return strings.ToLower(sanitizeName(value))
}
