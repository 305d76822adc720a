// Package platform holds the OS-facing implementations behind the
// detection and injection seams: window capture, text recognition,
// accessibility reads and game-process control. Everything hides behind
// interfaces the consuming packages define; non-Windows builds get
// stubs that report ErrUnsupported so the rest of the companion (status
// server, tracker, resolver) still runs.
package platform

import "errors"

// ErrUnsupported is returned by stubs on platforms without a client to
// watch.
var ErrUnsupported = errors.New("platform: not supported on this OS")
