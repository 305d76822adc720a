//go:build windows

package platform

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"lobbyswap/internal/inject"
)

var (
	ntdll                        = windows.NewLazySystemDLL("ntdll.dll")
	procNtSuspendProcess         = ntdll.NewProc("NtSuspendProcess")
	procNtResumeProcess          = ntdll.NewProc("NtResumeProcess")
	procNtQueryInformationThread = ntdll.NewProc("NtQueryInformationThread")
)

const (
	threadSuspendCount            = 35 // THREADINFOCLASS ThreadSuspendCount
	threadQueryLimitedInformation = 0x0800
)

// Finder locates the game executable by image name through a toolhelp
// snapshot.
type Finder struct{}

func (Finder) Find(ctx context.Context, name string) (inject.GameProcess, bool, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, false, fmt.Errorf("process snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Process32First(snap, &entry); err == nil; err = windows.Process32Next(snap, &entry) {
		if !strings.EqualFold(windows.UTF16ToString(entry.ExeFile[:]), name) {
			continue
		}
		h, err := windows.OpenProcess(
			windows.PROCESS_SUSPEND_RESUME|windows.PROCESS_QUERY_LIMITED_INFORMATION|windows.SYNCHRONIZE,
			false, entry.ProcessID)
		if err != nil {
			return nil, false, fmt.Errorf("open process %d: %w", entry.ProcessID, err)
		}
		return &winProcess{pid: int(entry.ProcessID), handle: h}, true, nil
	}
	return nil, false, nil
}

// winProcess suspends and resumes through the ntdll process-wide calls
// rather than walking threads; the game spawns threads constantly and a
// per-thread walk can miss one.
type winProcess struct {
	pid       int
	handle    windows.Handle
	suspended atomic.Bool
}

func (p *winProcess) PID() int { return p.pid }

func (p *winProcess) Suspend() error {
	if status, _, _ := procNtSuspendProcess.Call(uintptr(p.handle)); status != 0 {
		return fmt.Errorf("NtSuspendProcess: status 0x%08x", status)
	}
	p.suspended.Store(true)
	return nil
}

func (p *winProcess) Resume() error {
	if status, _, _ := procNtResumeProcess.Call(uintptr(p.handle)); status != 0 {
		return fmt.Errorf("NtResumeProcess: status 0x%08x", status)
	}
	p.suspended.Store(false)
	return nil
}

func (p *winProcess) Status() (inject.ProcessStatus, error) {
	ev, err := windows.WaitForSingleObject(p.handle, 0)
	if err != nil {
		return inject.StatusRunning, fmt.Errorf("query process %d: %w", p.pid, err)
	}
	if ev == windows.WAIT_OBJECT_0 {
		return inject.StatusStopped, nil
	}
	// Ask the scheduler rather than trusting our own bookkeeping: a
	// resume call that returned success leaves the process frozen when
	// something else raised the suspend count too.
	if count, err := p.suspendCount(); err == nil {
		if count > 0 {
			return inject.StatusSuspended, nil
		}
		return inject.StatusRunning, nil
	}
	if p.suspended.Load() {
		return inject.StatusSuspended, nil
	}
	return inject.StatusRunning, nil
}

// suspendCount reads the suspend count of one of the process's threads.
// The process-wide ntdll calls raise and lower every thread's count in
// step, so any thread answers for the process.
func (p *winProcess) suspendCount() (uint32, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPTHREAD, 0)
	if err != nil {
		return 0, fmt.Errorf("thread snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ThreadEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Thread32First(snap, &entry); err == nil; err = windows.Thread32Next(snap, &entry) {
		if int(entry.OwnerProcessID) != p.pid {
			continue
		}
		h, oerr := windows.OpenThread(threadQueryLimitedInformation, false, entry.ThreadID)
		if oerr != nil {
			continue
		}
		var count uint32
		status, _, _ := procNtQueryInformationThread.Call(uintptr(h),
			threadSuspendCount, uintptr(unsafe.Pointer(&count)), unsafe.Sizeof(count), 0)
		windows.CloseHandle(h)
		if status != 0 {
			return 0, fmt.Errorf("NtQueryInformationThread: status 0x%08x", status)
		}
		return count, nil
	}
	return 0, fmt.Errorf("process %d has no inspectable threads", p.pid)
}
