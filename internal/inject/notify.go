package inject

import "github.com/gen2brain/beeep"

// DesktopNotify is the default Notifier: a best-effort desktop toast.
func DesktopNotify(title, body string) {
	_ = beeep.Notify(title, body, "")
}
