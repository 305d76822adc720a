//go:build windows

package platform

import (
	"context"
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"

	"lobbyswap/internal/detect"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procFindWindowW    = user32.NewProc("FindWindowW")
	procGetClientRect  = user32.NewProc("GetClientRect")
	procClientToScreen = user32.NewProc("ClientToScreen")
	procGetDC          = user32.NewProc("GetDC")
	procReleaseDC      = user32.NewProc("ReleaseDC")

	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

const srcCopy = 0x00CC0020

type winRect struct{ left, top, right, bottom int32 }

type winPoint struct{ x, y int32 }

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// BandCapturer grabs the skin-name band of the client window via GDI.
// The band is sized proportionally around the label position so it
// tracks any client resolution.
type BandCapturer struct {
	window string
}

func NewBandCapturer(window string) *BandCapturer { return &BandCapturer{window: window} }

func findWindow(title string) (uintptr, error) {
	p, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, err
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(p)))
	if hwnd == 0 {
		return 0, fmt.Errorf("window %q not found", title)
	}
	return hwnd, nil
}

func clientRect(hwnd uintptr) (winRect, error) {
	var r winRect
	if ret, _, _ := procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&r))); ret == 0 {
		return r, fmt.Errorf("client rect unavailable")
	}
	return r, nil
}

func (c *BandCapturer) Capture(ctx context.Context) (image.Image, error) {
	hwnd, err := findWindow(c.window)
	if err != nil {
		return nil, err
	}
	r, err := clientRect(hwnd)
	if err != nil {
		return nil, err
	}
	cw := int(r.right - r.left)
	ch := int(r.bottom - r.top)
	if cw <= 0 || ch <= 0 {
		return nil, fmt.Errorf("window %q has no client area", c.window)
	}

	bw := cw * 2 / 5
	bh := ch / 18
	bx := int(float64(cw)*detect.NameLabelRatioX) - bw/2
	by := int(float64(ch)*detect.NameLabelRatioY) - bh/2
	if bx < 0 {
		bx = 0
	}
	if by < 0 {
		by = 0
	}

	winDC, _, _ := procGetDC.Call(hwnd)
	if winDC == 0 {
		return nil, fmt.Errorf("device context unavailable")
	}
	defer procReleaseDC.Call(hwnd, winDC)

	memDC, _, _ := procCreateCompatibleDC.Call(winDC)
	if memDC == 0 {
		return nil, fmt.Errorf("compatible DC unavailable")
	}
	defer procDeleteDC.Call(memDC)

	bi := bitmapInfo{Header: bitmapInfoHeader{
		Width:    int32(bw),
		Height:   -int32(bh), // top-down rows
		Planes:   1,
		BitCount: 32,
	}}
	bi.Header.Size = uint32(unsafe.Sizeof(bi.Header))

	var bits unsafe.Pointer
	bmp, _, _ := procCreateDIBSection.Call(memDC,
		uintptr(unsafe.Pointer(&bi)), 0,
		uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bmp == 0 || bits == nil {
		return nil, fmt.Errorf("DIB section unavailable")
	}
	defer procDeleteObject.Call(bmp)

	old, _, _ := procSelectObject.Call(memDC, bmp)
	defer procSelectObject.Call(memDC, old)

	if ret, _, _ := procBitBlt.Call(memDC, 0, 0, uintptr(bw), uintptr(bh),
		winDC, uintptr(bx), uintptr(by), srcCopy); ret == 0 {
		return nil, fmt.Errorf("blit failed")
	}

	src := unsafe.Slice((*byte)(bits), bw*bh*4)
	img := image.NewRGBA(image.Rect(0, 0, bw, bh))
	for i := 0; i+3 < len(src); i += 4 {
		// DIB rows are BGRA.
		img.Pix[i+0] = src[i+2]
		img.Pix[i+1] = src[i+1]
		img.Pix[i+2] = src[i+0]
		img.Pix[i+3] = 0xff
	}
	return img, nil
}
