package bridge

import (
	"fmt"
	"strings"
)

// Identifier is the stable namespace:path name a type receives at
// registration time. The pair is unknown when a type is created, which is
// what forces the two-phase create/register protocol.
type Identifier struct {
	Namespace string
	Path      string
}

func (id Identifier) String() string {
	return id.Namespace + ":" + id.Path
}

// IsZero reports whether the identifier is unset.
func (id Identifier) IsZero() bool {
	return id.Namespace == "" && id.Path == ""
}

// NewIdentifier validates namespace and path and returns the identifier.
func NewIdentifier(namespace, path string) (Identifier, error) {
	if !validNamespace(namespace) {
		return Identifier{}, fmt.Errorf("invalid namespace %q", namespace)
	}
	if !validPath(path) {
		return Identifier{}, fmt.Errorf("invalid path %q", path)
	}
	return Identifier{Namespace: namespace, Path: path}, nil
}

// ParseIdentifier parses "namespace:path".
func ParseIdentifier(s string) (Identifier, error) {
	ns, path, ok := strings.Cut(s, ":")
	if !ok {
		return Identifier{}, fmt.Errorf("identifier %q missing ':'", s)
	}
	return NewIdentifier(ns, path)
}

func validNamespace(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

func validPath(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '.' || r == '/') {
			return false
		}
	}
	return true
}
