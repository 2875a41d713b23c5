package safe

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// Recover logs a panic under name along with its stack. Call it deferred.
func Recover(name string) {
	if r := recover(); r != nil {
		zap.S().Named(name).Errorw("panic recovered", "panic", r, "stack", string(debug.Stack()))
	}
}

// Go runs fn in a goroutine, a panic is logged under name instead of crashing the process
func Go(name string, fn func()) {
	go func() {
		defer Recover(name)
		fn()
	}()
}

// Call runs fn on the calling goroutine and reports whether it returned without panicking
func Call(name string, fn func()) (ok bool) {
	defer Recover(name)
	fn()
	return true
}
