package wisp

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func withDebug(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetDebugMode(true)
	SetDebugLogger(zap.New(core))
	t.Cleanup(func() {
		SetDebugMode(false)
		SetDebugLogger(nil)
	})
	return logs
}

func expectDisposedPanic(t *testing.T) {
	t.Helper()
	r := recover()
	if r == nil {
		t.Fatal("expected panic, got none")
	}
	if msg := fmt.Sprint(r); !strings.Contains(msg, "disposed") {
		t.Errorf("panic message should mention 'disposed', got: %s", msg)
	}
}

// ---- Debug mode tests ------------------------------------------------------

func TestDebugMode_DisposedChildPanics(t *testing.T) {
	withDebug(t)
	parent := newNode(1, "parent", Identity())
	child := newNode(2, "child", Identity())
	child.dispose(nil)

	defer expectDisposedPanic(t)
	parent.addChild(child)
}

func TestDebugMode_DisposedParentPanics(t *testing.T) {
	withDebug(t)
	parent := newNode(1, "parent", Identity())
	parent.dispose(nil)
	child := newNode(2, "child", Identity())

	defer expectDisposedPanic(t)
	parent.addChild(child)
}

func TestDebugMode_OffSkipsDisposedCheck(t *testing.T) {
	SetDebugMode(false)
	parent := newNode(1, "parent", Identity())
	child := newNode(2, "child", Identity())
	child.dispose(nil)
	parent.addChild(child) // must not panic
}

func TestDebugMode_DeepTreeWarns(t *testing.T) {
	logs := withDebug(t)
	n := newNode(1, "n0", Identity())
	for i := 2; i <= debugMaxTreeDepth+2; i++ {
		c := newNode(NodeID(i), fmt.Sprintf("n%d", i-1), Identity())
		n.addChild(c)
		n = c
	}
	warned := logs.FilterMessage("tree depth exceeds threshold")
	if warned.Len() == 0 {
		t.Fatal("expected a depth warning")
	}
	first := warned.All()[0].ContextMap()
	if first["threshold"] != int64(debugMaxTreeDepth) {
		t.Errorf("threshold field = %v, want %d", first["threshold"], debugMaxTreeDepth)
	}
}

func TestDebugMode_SceneDestroyDisposes(t *testing.T) {
	withDebug(t)
	s := NewScene()
	a, err := s.CreateNode(s.Root(), Identity())
	if err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	stale := s.nodes[a]
	s.mu.Unlock()
	if err := s.DestroyNode(a); err != nil {
		t.Fatal(err)
	}
	if !stale.disposed {
		t.Fatal("destroyed node not marked disposed")
	}
	defer expectDisposedPanic(t)
	s.root.addChild(stale)
}

func TestDebugLog_DefaultLogger(t *testing.T) {
	SetDebugLogger(nil)
	if debugLog() == nil {
		t.Fatal("debugLog returned nil")
	}
}
