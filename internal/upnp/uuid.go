package upnp

import "fmt"

// FormatUUID renders a 16-byte digest as a "uuid:xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"
// string, the form required for a UDN (spec.md §3).
func FormatUUID(b []byte) string {
	if len(b) < 16 {
		padded := make([]byte, 16)
		copy(padded, b)
		b = padded
	}
	return fmt.Sprintf("uuid:%x-%x-%x-%x-%x", b[:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
