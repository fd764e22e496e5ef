// ABOUTME: Shared helpers for decoder tests
// ABOUTME: Small constructors used across test files
package decode

import (
	"bufio"
	"bytes"
)

func bufioReader(b []byte) *bufio.Reader {
	return bufio.NewReader(bytes.NewReader(b))
}
