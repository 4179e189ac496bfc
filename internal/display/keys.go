package display

// Key is a command read from the keyboard in the live view.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyReset
	KeyToggleSeconds
	KeyToggle24Hour
	KeyQuit
)

// parseKeys decodes raw-mode input. Arrow keys arrive as ESC [ A / ESC [ B.
func parseKeys(b []byte) []Key {
	var keys []Key
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case 0x1b:
			if i+2 < len(b) && b[i+1] == '[' {
				switch b[i+2] {
				case 'A':
					keys = append(keys, KeyUp)
				case 'B':
					keys = append(keys, KeyDown)
				}
				i += 2
				continue
			}
			keys = append(keys, KeyQuit)
		case 'k', '+':
			keys = append(keys, KeyUp)
		case 'j', '-':
			keys = append(keys, KeyDown)
		case 'r', 'R':
			keys = append(keys, KeyReset)
		case 's', 'S':
			keys = append(keys, KeyToggleSeconds)
		case 't', 'T':
			keys = append(keys, KeyToggle24Hour)
		case 'q', 'Q', 0x03, 0x04:
			keys = append(keys, KeyQuit)
		}
	}
	return keys
}
