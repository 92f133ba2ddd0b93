package eventstream

import "fmt"

// FormatSSE wraps a raw JSON payload in the "data: ...\n\n" framing the
// EventSource wire format expects.
func FormatSSE(payload []byte) []byte {
	return []byte(fmt.Sprintf("data: %s\n\n", payload))
}
