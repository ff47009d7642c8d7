package extract

import (
	"regexp"
	"strings"
)

var (
	filenamePrefixRe = regexp.MustCompile(`(?i)^FRMR\.([A-Z]+)\.`)
	jsonExtRe        = regexp.MustCompile(`(?i)\.json$`)
	separatorRe      = regexp.MustCompile(`[-_]+`)
	wordStartRe      = regexp.MustCompile(`\b\w`)
	dateLikeRe       = regexp.MustCompile(`(20\d{2})[-_. ]?(0[1-9]|1[0-2])(?:[-_. ]?(0[1-9]|[12]\d|3[01]))?`)
	dateSepRe        = regexp.MustCompile(`[-_. ]`)
)

// An extractor pulls one metadata value out of a document object. It
// returns an empty string when the value is absent.
type extractor func(obj map[string]any) string

var (
	titleExtractors = []extractor{
		nested("info", "name"),
		nested("metadata", "title"),
		nested("title"),
	}
	sectionTitleExtractors = append(titleExtractors, nested("name"))

	versionExtractors = []extractor{
		release("id"),
		nested("info", "version"),
		nested("metadata", "version"),
		nested("version"),
	}

	publishedExtractors = []extractor{
		release("published_date"),
		nested("info", "published"),
		nested("info", "date"),
		nested("metadata", "published"),
		nested("metadata", "published_at"),
		nested("metadata", "date"),
		nested("metadata", "released"),
		nested("published"),
		nested("date"),
	}
)

// firstOf returns the first non-empty value produced by extractors.
func firstOf(extractors []extractor, obj map[string]any) string {
	for _, extract := range extractors {
		if v := extract(obj); v != "" {
			return v
		}
	}
	return ""
}

// nested returns an extractor for the string at the given object path.
func nested(path ...string) extractor {
	return func(obj map[string]any) string {
		cur := obj
		for _, key := range path[:len(path)-1] {
			next, ok := cur[key].(map[string]any)
			if !ok {
				return ""
			}
			cur = next
		}
		s, _ := cur[path[len(path)-1]].(string)
		return s
	}
}

// release returns an extractor for a field of the latest release, the
// first entry of info.releases.
func release(field string) extractor {
	return func(obj map[string]any) string {
		info, ok := obj["info"].(map[string]any)
		if !ok {
			return ""
		}
		releases, ok := info["releases"].([]any)
		if !ok || len(releases) == 0 {
			return ""
		}
		latest, ok := releases[0].(map[string]any)
		if !ok {
			return ""
		}
		s, _ := latest[field].(string)
		return s
	}
}

// TitleFromFilename derives a title from a filename such as
// "FRMR.KSI.key-security-indicators.json".
func TitleFromFilename(name string) string {
	s := jsonExtRe.ReplaceAllString(name, "")
	s = filenamePrefixRe.ReplaceAllString(s, "")
	s = separatorRe.ReplaceAllString(s, " ")
	return wordStartRe.ReplaceAllStringFunc(s, strings.ToUpper)
}

// VersionFromFilename returns a date-like version such as "2025-06-01"
// found in name, or an empty string.
func VersionFromFilename(name string) string {
	m := dateLikeRe.FindString(name)
	if m == "" {
		return ""
	}
	return dateSepRe.ReplaceAllString(m, "-")
}

// TypeFromFilename returns the type tag of a filename such as
// "FRMR.MAS.minimum-assessment-scope.json", or an empty string.
func TypeFromFilename(name string) string {
	m := filenamePrefixRe.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// docMeta holds resolved metadata of a file or section.
type docMeta struct {
	title     string
	version   string
	published string
}

func fileMeta(obj map[string]any, name string) docMeta {
	m := docMeta{
		title:     firstOf(titleExtractors, obj),
		version:   firstOf(versionExtractors, obj),
		published: firstOf(publishedExtractors, obj),
	}
	if m.title == "" {
		m.title = TitleFromFilename(name)
	}
	if m.version == "" {
		m.version = VersionFromFilename(name)
	}
	return m
}

// sectionMeta resolves metadata of a unified-file section, inheriting
// from the file where the section is silent.
func sectionMeta(obj map[string]any, file docMeta, label string) docMeta {
	m := docMeta{
		title:     firstOf(sectionTitleExtractors, obj),
		version:   firstOf(versionExtractors, obj),
		published: firstOf(publishedExtractors, obj),
	}
	if m.title == "" {
		m.title = file.title + ": " + label
	}
	if m.version == "" {
		m.version = file.version
	}
	if m.published == "" {
		m.published = file.published
	}
	return m
}
