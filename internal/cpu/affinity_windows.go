//go:build windows

package cpu

import (
	"runtime"

	"golang.org/x/sys/windows"
)

var (
	kernel32              = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinity = kernel32.NewProc("SetThreadAffinityMask")
)

// PinWorker locks the calling goroutine to an OS thread and pins that thread
// to the core selected by workerID (modulo the CPU count). The returned
// cleanup releases the thread lock and must be deferred by the caller.
func PinWorker(workerID int) func() {
	runtime.LockOSThread()
	_ = pinToCore(workerID)

	return func() {
		runtime.UnlockOSThread()
	}
}

func pinToCore(cpuID int) error {
	numCPU := runtime.NumCPU()
	if cpuID < 0 || cpuID >= numCPU {
		cpuID = ((cpuID % numCPU) + numCPU) % numCPU
	}

	// Bit N of the mask selects CPU N.
	mask := uintptr(1) << uint(cpuID)
	ret, _, err := procSetThreadAffinity.Call(uintptr(windows.CurrentThread()), mask)
	if ret == 0 {
		return err
	}
	return nil
}
