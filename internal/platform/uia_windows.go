//go:build windows

package platform

import (
	"context"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"lobbyswap/internal/detect"
)

var (
	oleacc   = windows.NewLazySystemDLL("oleacc.dll")
	oleaut32 = windows.NewLazySystemDLL("oleaut32.dll")

	procAccessibleObjectFromPoint = oleacc.NewProc("AccessibleObjectFromPoint")
	procSysFreeString             = oleaut32.NewProc("SysFreeString")
)

// VARIANT, 64-bit layout: vt + reserved words + 16-byte union.
type variant struct {
	vt  uint16
	_   [3]uint16
	val [2]uintptr
}

// IAccessible through get_accName; the rest of the interface is unused.
type iAccessible struct{ vtbl *iAccessibleVtbl }

type iAccessibleVtbl struct {
	QueryInterface   uintptr
	AddRef           uintptr
	Release          uintptr
	GetTypeInfoCount uintptr
	GetTypeInfo      uintptr
	GetIDsOfNames    uintptr
	Invoke           uintptr
	GetAccParent     uintptr
	GetAccChildCount uintptr
	GetAccChild      uintptr
	GetAccName       uintptr
}

var comOnce sync.Once

// LabelReader finds the skin-name label by hit-testing the accessibility
// object at its proportional position in the client window.
type LabelReader struct {
	window string
}

func NewLabelReader(window string) *LabelReader { return &LabelReader{window: window} }

func (r *LabelReader) Resolve(ctx context.Context) (detect.TextNode, error) {
	comOnce.Do(func() {
		// Already-initialized apartments return an error we can ignore.
		_ = windows.CoInitializeEx(0, windows.COINIT_MULTITHREADED)
	})

	hwnd, err := findWindow(r.window)
	if err != nil {
		return nil, err
	}
	rect, err := clientRect(hwnd)
	if err != nil {
		return nil, err
	}
	pt := winPoint{
		x: int32(float64(rect.right-rect.left) * detect.NameLabelRatioX),
		y: int32(float64(rect.bottom-rect.top) * detect.NameLabelRatioY),
	}
	if ret, _, _ := procClientToScreen.Call(hwnd, uintptr(unsafe.Pointer(&pt))); ret == 0 {
		return nil, fmt.Errorf("client point unmappable")
	}

	node := &accNode{}
	packed := uintptr(uint64(uint32(pt.x)) | uint64(uint32(pt.y))<<32)
	hr, _, _ := procAccessibleObjectFromPoint.Call(packed,
		uintptr(unsafe.Pointer(&node.acc)),
		uintptr(unsafe.Pointer(&node.child)))
	if hr != 0 || node.acc == nil {
		return nil, fmt.Errorf("no accessible object at label point: hresult 0x%08x", hr)
	}
	return node, nil
}

// accNode holds one accessible object plus the child id the hit test
// returned. The reference is released when the node goes stale and the
// backend drops it.
type accNode struct {
	acc      *iAccessible
	child    variant
	released bool
}

func (n *accNode) Text(ctx context.Context) (string, error) {
	if n.released || n.acc == nil {
		return "", fmt.Errorf("accessible object released")
	}
	var bstr *uint16
	hr, _, _ := syscall.SyscallN(n.acc.vtbl.GetAccName,
		uintptr(unsafe.Pointer(n.acc)),
		uintptr(unsafe.Pointer(&n.child)),
		uintptr(unsafe.Pointer(&bstr)))
	if hr != 0 {
		n.release()
		return "", fmt.Errorf("accName read failed: hresult 0x%08x", hr)
	}
	if bstr == nil {
		return "", nil
	}
	text := windows.UTF16PtrToString(bstr)
	procSysFreeString.Call(uintptr(unsafe.Pointer(bstr)))
	return text, nil
}

func (n *accNode) release() {
	if n.released || n.acc == nil {
		return
	}
	syscall.SyscallN(n.acc.vtbl.Release, uintptr(unsafe.Pointer(n.acc)))
	n.released = true
}
