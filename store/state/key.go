package state

import (
	"fmt"
	"strings"
)

// Key join parts with '/', numbers are zero padded so keys sort numerically
func Key(parts ...interface{}) []byte {
	ss := make([]string, len(parts))
	for i, p := range parts {
		switch p := p.(type) {
		case uint64:
			ss[i] = fmt.Sprintf("%020d", p)
		case int64:
			ss[i] = fmt.Sprintf("%020d", p)
		case int:
			ss[i] = fmt.Sprintf("%020d", p)
		default:
			ss[i] = fmt.Sprint(p)
		}
	}

	return []byte(strings.Join(ss, "/"))
}

// Prefix like Key with a trailing separator
func Prefix(parts ...interface{}) []byte {
	return append(Key(parts...), '/')
}
