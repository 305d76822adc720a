//go:build windows

package platform

var procGetForegroundWindow = user32.NewProc("GetForegroundWindow")

// WindowFocused reports whether the named window is the foreground
// window. Detection stays off while the user is alt-tabbed away so
// pixels from overlapping windows never reach recognition.
func WindowFocused(title string) bool {
	hwnd, err := findWindow(title)
	if err != nil {
		return false
	}
	fg, _, _ := procGetForegroundWindow.Call()
	return fg != 0 && fg == hwnd
}
