//go:build linux

// Package cpu pins worker goroutines to CPU cores where the platform
// supports thread affinity.
package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
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

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)

	// Pid 0 targets the current thread.
	return unix.SchedSetaffinity(0, &mask)
}
