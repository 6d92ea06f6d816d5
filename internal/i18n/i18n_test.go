package i18n

import (
	"testing"
	"testing/fstest"

	"golang.org/x/text/language"
)

func TestT(t *testing.T) {
	tests := []struct {
		name string
		tag  language.Tag
		key  string
		want string
	}{
		{"english", language.English, "action.move_waypoint", "Move Waypoint"},
		{"german", language.German, "action.delete_waypoint", "Wegpunkt löschen"},
		{"french region", language.MustParse("fr-CA"), "action.create_waypoint", "Créer un point de route"},
		{"unsupported falls back", language.Japanese, "action.create_waypoint", "Create Waypoint"},
		{"missing key", language.English, "no.such.key", "no.such.key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := T(tt.tag, tt.key); got != tt.want {
				t.Errorf("T(%v, %q) = %q, want %q", tt.tag, tt.key, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if got := Parse(""); got.String() != BaseLocale {
		t.Errorf("Parse(\"\") = %v, want %s", got, BaseLocale)
	}
	if got := Parse("not a locale!"); got.String() != BaseLocale {
		t.Errorf("Parse(garbage) = %v, want %s", got, BaseLocale)
	}
	if got := Parse("de"); got.String() != "de-DE" {
		t.Errorf("Parse(de) = %v, want de-DE", got)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		in   language.Tag
		want string
	}{
		{language.MustParse("en-US"), "en-US"},
		{language.MustParse("de-AT"), "de-DE"},
		{language.MustParse("fr"), "fr-FR"},
		{language.MustParse("nb"), "nb-NO"},
		{language.Japanese, BaseLocale},
	}

	for _, tt := range tests {
		if got := Match(tt.in); got.String() != tt.want {
			t.Errorf("Match(%v) = %v, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLocales(t *testing.T) {
	got := Locales()
	want := []string{"de-DE", "en-US", "fr-FR", "nb-NO"}
	if len(got) != len(want) {
		t.Fatalf("Locales() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Locales()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{
			name: "missing base locale",
			fsys: fstest.MapFS{
				"locales/de-DE/a.yaml": {Data: []byte("locale: de-DE\nmessages:\n  k: v\n")},
			},
		},
		{
			name: "locale mismatch",
			fsys: fstest.MapFS{
				"locales/en-US/a.yaml": {Data: []byte("locale: de-DE\nmessages:\n  k: v\n")},
			},
		},
		{
			name: "duplicate key",
			fsys: fstest.MapFS{
				"locales/en-US/a.yaml": {Data: []byte("locale: en-US\nmessages:\n  k: v\n")},
				"locales/en-US/b.yaml": {Data: []byte("locale: en-US\nmessages:\n  k: w\n")},
			},
		},
		{
			name: "bad yaml",
			fsys: fstest.MapFS{
				"locales/en-US/a.yaml": {Data: []byte("locale: [\n")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(tt.fsys); err == nil {
				t.Error("expected error")
			}
		})
	}
}
