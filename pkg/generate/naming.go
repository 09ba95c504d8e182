package generate

import (
	"strings"

	"github.com/uiforge/compsync/pkg/diff"
)

// kebab converts a bundle or field machine name to kebab-case.
func kebab(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}

// pascal converts a machine name to PascalCase for component identifiers.
func pascal(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// camel converts a machine name to camelCase for parameter identifiers.
func camel(name string) string {
	p := pascal(name)
	if p == "" {
		return p
	}
	return strings.ToLower(p[:1]) + p[1:]
}

// rootClass returns the class name for the component's root element under
// the given naming style.
func rootClass(style NamingStyle, bundleID string) string {
	block := kebab(bundleID)
	switch style {
	case NamingFramework:
		return "c-" + block
	default:
		return block
	}
}

// elementClass returns the class name for one field or slot element under
// the given naming style. Field names are decoded back to their manifest
// names where possible so generated classes read like the manifest.
func elementClass(style NamingStyle, bundleID, fieldName string) string {
	element := fieldName
	if manifestName, ok := diff.ManifestName(fieldName); ok {
		element = manifestName
	}
	element = kebab(element)
	block := kebab(bundleID)

	switch style {
	case NamingMinimal:
		return block + "-" + element
	case NamingFramework:
		return "c-" + block + "__" + element
	default: // NamingBEM
		return block + "__" + element
	}
}
