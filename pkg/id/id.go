package id

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// ID returns a unique ID based on the parts passed in. If none are passed in
// then ID will be random. The ID will be a fixed length of hexadecimal
// characters.
func ID(parts ...string) string {
	var data string

	if len(parts) > 0 {
		data = strings.Join(parts, "\n")
	} else {
		data = uuid.New().String()
	}

	return fmt.Sprintf("%016x", xxhash.Sum64String(data))
}
