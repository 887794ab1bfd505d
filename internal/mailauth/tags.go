package mailauth

import "strings"

// Tag is one key=value pair of a tag-list record.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tags is an ordered tag list as used by DKIM and DMARC records.
type Tags []Tag

// Get returns the value of the first tag named key.
func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Map returns the tags as a map.
func (t Tags) Map() map[string]string {
	m := make(map[string]string, len(t))
	for _, tag := range t {
		m[tag.Key] = tag.Value
	}
	return m
}

// parseTags matches the "v=<version>" prefix and splits the rest of the record
// on ";" and each segment on its first "=". All whitespace is removed first.
// Segments without a key or "=" and repeated keys are dropped.
func parseTags(txt, version string) (Tags, bool) {
	compact := strings.Join(strings.Fields(txt), "")
	segments := strings.Split(compact, ";")
	if !strings.EqualFold(segments[0], "v="+version) {
		return nil, false
	}

	tags := Tags{}
	seen := map[string]bool{}
	for _, seg := range segments[1:] {
		key, value, ok := strings.Cut(seg, "=")
		if !ok || key == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, Tag{Key: key, Value: value})
	}
	return tags, true
}

func buildTags(version string, tags Tags) string {
	parts := make([]string, 0, len(tags)+1)
	parts = append(parts, "v="+version)
	for _, tag := range tags {
		if tag.Key == "v" {
			continue
		}
		parts = append(parts, tag.Key+"="+tag.Value)
	}
	return strings.Join(parts, "; ")
}
