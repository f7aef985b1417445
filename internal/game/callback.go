package game

import (
	"fmt"
	"strings"
)

// Callback data uses the form "<namespace>_<action>" or
// "<namespace>_<action>_<arg>". The namespace routes the press to the right
// game; action and arg are interpreted by that game's handler.

// EncodeCallback builds callback data for an inline button.
func EncodeCallback(namespace, action, arg string) string {
	if arg != "" {
		return fmt.Sprintf("%s_%s_%s", namespace, action, arg)
	}
	return fmt.Sprintf("%s_%s", namespace, action)
}

// DecodeCallback splits callback data belonging to the given namespace into
// action and optional argument. Returns ok=false if the data is for another
// namespace.
func DecodeCallback(namespace, data string) (action, arg string, ok bool) {
	prefix := namespace + "_"
	if !strings.HasPrefix(data, prefix) {
		return "", "", false
	}
	content := strings.TrimPrefix(data, prefix)
	parts := strings.SplitN(content, "_", 2)
	action = parts[0]
	if len(parts) > 1 {
		arg = parts[1]
	}
	return action, arg, true
}
