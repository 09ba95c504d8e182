package diff

import "testing"

func TestFieldName(t *testing.T) {
	tests := []struct {
		manifest string
		want     string
	}{
		{"title", "cs_title"},
		{"heroImage", "cs_hero_image"},
		{"hero_image", "cs_hero__image"},
		{"hero-image", "cs_hero_0image"},
		{"CTA", "cs__c_t_a"},
		{"item2", "cs_item2"},
		{"", "cs_"},
	}
	for _, tt := range tests {
		if got := FieldName(tt.manifest); got != tt.want {
			t.Errorf("FieldName(%q) = %q, want %q", tt.manifest, got, tt.want)
		}
	}
}

// Names that differ only in case or separator must never derive the same
// field name.
func TestFieldNameInjective(t *testing.T) {
	names := []string{
		"title", "Title", "ti_tle", "ti-tle", "tiTle",
		"hero_image", "heroImage", "hero-image", "heroimage",
	}
	seen := make(map[string]string)
	for _, n := range names {
		derived := FieldName(n)
		if prior, dup := seen[derived]; dup {
			t.Errorf("names %q and %q both derive %q", prior, n, derived)
		}
		seen[derived] = n
	}
}

func TestManifestNameRoundTrip(t *testing.T) {
	for _, name := range []string{"title", "heroImage", "hero_image", "hero-image", "CTA", "a1B2"} {
		back, ok := ManifestName(FieldName(name))
		if !ok {
			t.Errorf("ManifestName(FieldName(%q)) did not decode", name)
			continue
		}
		if back != name {
			t.Errorf("round trip of %q produced %q", name, back)
		}
	}
}

func TestManifestNameRejectsForeignFields(t *testing.T) {
	tests := []string{
		"body",          // no prefix
		"field_title",   // wrong prefix
		"cs_title_",     // dangling escape
		"cs_title_9",    // invalid escape target
	}
	for _, input := range tests {
		if _, ok := ManifestName(input); ok {
			t.Errorf("ManifestName(%q) decoded, want rejection", input)
		}
	}
}

func TestHumanize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hero_image", "Hero Image"},
		{"title", "Title"},
		{"call-to-action", "Call To Action"},
	}
	for _, tt := range tests {
		if got := Humanize(tt.in); got != tt.want {
			t.Errorf("Humanize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
