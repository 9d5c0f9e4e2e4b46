//go:build darwin

package cpu

import "runtime"

// PinWorker locks the calling goroutine to an OS thread. macOS exposes no
// public thread affinity API, so no core pinning is attempted.
func PinWorker(workerID int) func() {
	runtime.LockOSThread()

	return func() {
		runtime.UnlockOSThread()
	}
}
