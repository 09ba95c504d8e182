package diff

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FieldPrefix marks fields whose names were derived from manifest entries.
// Provenance is tracked explicitly on the field definition; the prefix only
// keeps derived names out of the way of hand-created fields.
const FieldPrefix = "cs_"

// FieldName derives the bundle field name for a manifest prop or slot name.
//
// The encoding is injective over the manifest name character set
// ([a-zA-Z0-9_-]): lowercase letters and digits pass through, an underscore
// doubles, an uppercase letter becomes underscore plus its lowercase form,
// and a hyphen becomes "_0". Distinct manifest names therefore never
// collide within one bundle.
func FieldName(manifestName string) string {
	var b strings.Builder
	b.WriteString(FieldPrefix)
	for _, r := range manifestName {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_':
			b.WriteString("__")
		case r >= 'A' && r <= 'Z':
			b.WriteRune('_')
			b.WriteRune(r + ('a' - 'A'))
		case r == '-':
			b.WriteString("_0")
		default:
			// Outside the allowed set; drop rather than guess.
		}
	}
	return b.String()
}

// ManifestName inverts FieldName. The second return is false when the field
// name does not carry the derived-name prefix or decodes improperly.
func ManifestName(fieldName string) (string, bool) {
	encoded, ok := strings.CutPrefix(fieldName, FieldPrefix)
	if !ok {
		return "", false
	}
	var b strings.Builder
	runes := []rune(encoded)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '_' {
			b.WriteRune(r)
			continue
		}
		if i+1 >= len(runes) {
			return "", false
		}
		i++
		switch next := runes[i]; {
		case next == '_':
			b.WriteRune('_')
		case next == '0':
			b.WriteRune('-')
		case next >= 'a' && next <= 'z':
			b.WriteRune(next - ('a' - 'A'))
		default:
			return "", false
		}
	}
	return b.String(), true
}

var titleCaser = cases.Title(language.English)

// Humanize turns a machine name into a display label: "hero_image" becomes
// "Hero Image".
func Humanize(name string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return titleCaser.String(cleaned)
}
