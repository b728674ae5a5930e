// internal/app/system/limits/limits.go
package limits

// Request size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size of a JSON request body.
	MaxJSONBody = 64 << 10 // 64 KB

	// MaxSocketFrame is the maximum size of one inbound websocket frame.
	// Clients only send small control frames.
	MaxSocketFrame = 4 << 10 // 4 KB

	// MaxMessageText is the maximum length, in characters, of one direct
	// message.
	MaxMessageText = 2000
)
