package model

import "strings"

// Key addresses an entity inside a snapshot. Keys are derived from the
// container key plus a local name, so equal keys across the two snapshots
// are the default correspondence signal.
type Key string

// Name returns the part of the key after the last '/'.
func (k Key) Name() string {
	s := string(k)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func (k Key) String() string {
	return string(k)
}

const (
	typeSeparator      = "."
	memberSeparator    = "#"
	anonymousSeparator = "$"
)

func packageKey(sourceFolder, fullName string) Key {
	return Key(sourceFolder + fullName)
}

func typeKey(container Key, simpleName string) Key {
	return Key(string(container) + typeSeparator + simpleName)
}

func memberKey(container Key, signature string) Key {
	return Key(string(container) + memberSeparator + signature)
}

func anonymousKey(container Key, localName string) Key {
	return Key(string(container) + anonymousSeparator + localName)
}
