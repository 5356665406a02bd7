// Package config holds the configuration blocks shared by the service binaries.
// Every block can print itself with secrets masked and validate its values.
package config

import (
	"fmt"
	"strings"
)

// section renders one titled block of a configuration dump.
type section struct {
	b strings.Builder
}

func newSection(title string) *section {
	s := &section{}
	fmt.Fprintf(&s.b, "\n--- %s ---\n", title)
	return s
}

func (s *section) add(key string, value any) *section {
	fmt.Fprintf(&s.b, "  %s: %v\n", key, value)
	return s
}

func (s *section) String() string {
	return s.b.String()
}

// MaskURL hides the user info part of a connection URL.
func MaskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	if _, host, ok := strings.Cut(url, "@"); ok {
		return "****@" + host
	}
	return "****"
}
