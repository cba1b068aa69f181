package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyI     = 73  // I key (ASCII), toggles image based lighting
	KeyP     = 80  // P key (ASCII), requests a screenshot
	KeyR     = 82  // R key (ASCII), resets the orbit camera
	KeySpace = 32  // Spacebar (ASCII), pauses scene time
	KeyEsc   = 256 // Escape key (GLFW)
)
