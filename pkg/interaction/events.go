package interaction

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonNone Button = iota
	ButtonPrimary
	ButtonSecondary
	ButtonMiddle
)

// Modifiers is a set of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether every modifier in m2 is held.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// PointerEvent is a press, move or release at Pos in canvas pixels. For
// moves, Button is the button held during the move, or ButtonNone.
type PointerEvent struct {
	Pos       r2.Vec
	Button    Button
	Modifiers Modifiers
}

// Key names used by the controller.
const (
	KeyControl = "Control"
	KeySpace   = "Space"
)

// KeyEvent is a key press or release. Text carries the typed character,
// when there is one.
type KeyEvent struct {
	Key       string
	Text      string
	Modifiers Modifiers
}
