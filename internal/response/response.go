// Package response builds the {success, message, ...} JSON envelope every
// action returns.
package response

type Body map[string]interface{}

func Success(message string) Body {
	return Body{"success": true, "message": message}
}

func Failure(message string) Body {
	return Body{"success": false, "message": message}
}

// With adds an action-specific field to the envelope.
func (b Body) With(key string, value interface{}) Body {
	b[key] = value
	return b
}
