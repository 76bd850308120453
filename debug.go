package wisp

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// globalDebug enables extra checks: disposed-node panics, tree depth warnings
// and finalizers that report manipulators dropped without Close.
var globalDebug bool

var (
	debugMu     sync.Mutex
	debugLogger *zap.Logger
)

// SetDebugMode enables or disables debug checks for the whole package.
func SetDebugMode(enabled bool) {
	globalDebug = enabled
}

// SetDebugLogger routes debug warnings to logger. A nil logger restores the
// default stderr console logger.
func SetDebugLogger(logger *zap.Logger) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugLogger = logger
}

func debugLog() *zap.Logger {
	debugMu.Lock()
	defer debugMu.Unlock()
	if debugLogger == nil {
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			zapcore.DebugLevel,
		)
		debugLogger = zap.New(core).Named("wisp")
	}
	return debugLogger
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation.
func debugCheckDisposed(n *node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("wisp debug: %s on disposed node %q (ID was %d)", op, n.name, n.id))
	}
}

// debugMaxTreeDepth is the depth above which debugCheckTreeDepth warns.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		debugLog().Warn("tree depth exceeds threshold",
			zap.Int("depth", depth),
			zap.Int("threshold", debugMaxTreeDepth),
			zap.Stringer("node", n))
	}
}

// debugTrackClose installs a finalizer on owner that warns when it is
// garbage collected before closed reports true. The check only runs in debug
// mode. closed must not capture owner.
func debugTrackClose[T any](owner *T, component string, closed func(*T) bool) {
	if !globalDebug {
		return
	}
	runtime.SetFinalizer(owner, func(o *T) {
		if !closed(o) {
			debugLog().Warn("component garbage collected without Close",
				zap.String("component", component))
		}
	})
}
