package openglhelper

import "github.com/go-gl/glfw/v3.3/glfw"

// keyNames covers keys GLFW has no printable name for. Names follow the
// DOM KeyboardEvent.key values so handlers can share key tables.
var keyNames = map[glfw.Key]string{
	glfw.KeySpace:        " ",
	glfw.KeyEscape:       "Escape",
	glfw.KeyEnter:        "Enter",
	glfw.KeyTab:          "Tab",
	glfw.KeyBackspace:    "Backspace",
	glfw.KeyUp:           "ArrowUp",
	glfw.KeyDown:         "ArrowDown",
	glfw.KeyLeft:         "ArrowLeft",
	glfw.KeyRight:        "ArrowRight",
	glfw.KeyLeftShift:    "Shift",
	glfw.KeyRightShift:   "Shift",
	glfw.KeyLeftControl:  "Control",
	glfw.KeyRightControl: "Control",
	glfw.KeyLeftAlt:      "Alt",
	glfw.KeyRightAlt:     "Alt",
}

// KeyName returns a textual identifier for a GLFW key. Printable keys use
// the layout-aware name from GLFW, e.g. "w". Unknown keys return "".
func KeyName(key glfw.Key, scancode int) string {
	if name, ok := keyNames[key]; ok {
		return name
	}
	return glfw.GetKeyName(key, scancode)
}
