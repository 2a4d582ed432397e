package query

import "strings"

const keySep = "\x1f"

// Key addresses a cache entry: a resource tag followed by ordered segments
// such as an id or a canonical parameter string. Keys are comparable, so two
// keys built from equal segments address the same entry.
type Key struct {
	path string
}

// NewKey builds a key from a resource tag and optional segments.
func NewKey(resource string, segments ...string) Key {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, resource)
	parts = append(parts, segments...)
	return Key{path: strings.Join(parts, keySep)}
}

// Segments returns the resource tag and segments in order.
func (k Key) Segments() []string {
	if k.path == "" {
		return nil
	}
	return strings.Split(k.path, keySep)
}

// Resource is the first segment.
func (k Key) Resource() string {
	res, _, _ := strings.Cut(k.path, keySep)
	return res
}

// HasPrefix reports whether prefix's segments are a leading run of k's.
func (k Key) HasPrefix(prefix Key) bool {
	if prefix.path == "" {
		return true
	}
	return k.path == prefix.path || strings.HasPrefix(k.path, prefix.path+keySep)
}

// Append returns a key extended with more segments.
func (k Key) Append(segments ...string) Key {
	if len(segments) == 0 {
		return k
	}
	if k.path == "" {
		return NewKey(segments[0], segments[1:]...)
	}
	return Key{path: k.path + keySep + strings.Join(segments, keySep)}
}

func (k Key) String() string {
	return strings.ReplaceAll(k.path, keySep, "/")
}
