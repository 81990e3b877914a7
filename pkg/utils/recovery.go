package utils

import (
	"fmt"
	"os"
	"runtime/debug"

	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
)

// RecoverFn handles a recovered panic value and its stack trace.
type RecoverFn func(r interface{}, stack []byte)

// SafeGo runs fn in a goroutine that must not take the process down with it.
// A panic is handed to onPanic when provided, otherwise logged; if the global
// logger is not initialized yet, stderr is the last resort.
func SafeGo(fn func(), onPanic RecoverFn) {
	go func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			stack := debug.Stack()
			switch {
			case onPanic != nil:
				onPanic(r, stack)
			case logger.Log != nil:
				logger.Log.Error("Recovered from panic in goroutine",
					zap.Any("panic", r),
					zap.ByteString("stack", stack),
				)
			default:
				fmt.Fprintf(os.Stderr, "panic in goroutine: %v\n%s\n", r, stack)
			}
		}()
		fn()
	}()
}
