package httpx

import (
	"bytes"
	"io"
)

// Snippet reads at most 2KiB of a failed response body for error messages.
func Snippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 2<<10))
	return string(bytes.TrimSpace(b))
}
