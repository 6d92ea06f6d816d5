// Package i18n provides localized user-facing strings.
//
// Catalogs are embedded YAML files, one per locale, registered with
// golang.org/x/text/message at package initialization.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the source locale every key must be defined in.
const BaseLocale = "en-US"

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

//go:embed locales/*/*.yaml
var embedded embed.FS

var (
	locales = mustLoad(embedded)
	matcher, supported = newMatcher(locales)
)

// load reads every catalog and registers its messages.
func load(fsys fs.FS) (map[string]map[string]string, error) {
	paths, err := fs.Glob(fsys, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob catalogs: %w", err)
	}
	sort.Strings(paths)

	result := make(map[string]map[string]string)
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		dir := path.Base(path.Dir(p))
		if strings.TrimSpace(file.Locale) != dir {
			return nil, fmt.Errorf("catalog %s: locale %q must match directory %q", p, file.Locale, dir)
		}
		msgs, ok := result[dir]
		if !ok {
			msgs = make(map[string]string)
			result[dir] = msgs
		}
		for k, v := range file.Messages {
			if _, dup := msgs[k]; dup {
				return nil, fmt.Errorf("catalog %s: duplicate key %q", p, k)
			}
			msgs[k] = v
		}
	}

	if _, ok := result[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined", BaseLocale)
	}

	for locale, msgs := range result {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", locale, err)
		}
		for k, v := range msgs {
			if err := message.SetString(tag, k, v); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", locale, k, err)
			}
		}
	}
	return result, nil
}

func mustLoad(fsys fs.FS) map[string]map[string]string {
	l, err := load(fsys)
	if err != nil {
		panic(err)
	}
	return l
}

// newMatcher returns a matcher over the loaded locales and the tags it was
// built from, in matcher index order.
func newMatcher(l map[string]map[string]string) (language.Matcher, []language.Tag) {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)

	// The base locale goes first so it is the matcher's fallback.
	tags := []language.Tag{language.MustParse(BaseLocale)}
	for _, name := range names {
		if name != BaseLocale {
			tags = append(tags, language.MustParse(name))
		}
	}
	return language.NewMatcher(tags), tags
}

// Match returns the best supported tag for the requested one.
func Match(tag language.Tag) language.Tag {
	_, idx, _ := matcher.Match(tag)
	return supported[idx]
}

// Parse parses a locale string such as "de" or "fr-FR" and matches it
// against the supported locales. Unparseable input yields the base locale.
func Parse(s string) language.Tag {
	if strings.TrimSpace(s) == "" {
		return language.MustParse(BaseLocale)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.MustParse(BaseLocale)
	}
	return Match(tag)
}

// Printer returns a message printer for the best match of tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(Match(tag))
}

// T translates key for tag. Keys missing from the matched locale fall back
// to the base locale, then to the key itself.
func T(tag language.Tag, key string) string {
	matched := Match(tag)
	if msgs, ok := locales[matched.String()]; ok {
		if _, ok := msgs[key]; ok {
			return message.NewPrinter(matched).Sprintf(key)
		}
	}
	if v, ok := locales[BaseLocale][key]; ok {
		return v
	}
	return key
}

// Locales returns the supported locale identifiers, sorted.
func Locales() []string {
	out := make([]string, 0, len(locales))
	for name := range locales {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
