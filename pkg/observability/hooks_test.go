package observability

import (
	"context"
	"testing"
	"time"
)

type testAnalysisHooks struct {
	NoopAnalysisHooks
	enumerations int
}

func (h *testAnalysisHooks) OnEnumerateStart(context.Context, int) { h.enumerations++ }

type testCacheHooks struct {
	NoopCacheHooks
	hits int
}

func (h *testCacheHooks) OnCacheHit(context.Context, string) { h.hits++ }

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	a := NoopAnalysisHooks{}
	a.OnDetectStart(ctx, 10, 20)
	a.OnDetectComplete(ctx, 2, time.Second)
	a.OnEnumerateStart(ctx, 2)
	a.OnEnumerateComplete(ctx, 5, false, time.Second)
	a.OnSelectComplete(ctx, 3, time.Second)
	a.OnResolveStart(ctx, 3)
	a.OnResolveComplete(ctx, 2, 1, time.Second)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "report")
	c.OnCacheMiss(ctx, "report")
	c.OnCacheSet(ctx, "report", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Analysis().(NoopAnalysisHooks); !ok {
		t.Error("Analysis() should return NoopAnalysisHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customAnalysis := &testAnalysisHooks{}
	SetAnalysisHooks(customAnalysis)
	if Analysis() != customAnalysis {
		t.Error("SetAnalysisHooks should set custom hooks")
	}
	Analysis().OnEnumerateStart(context.Background(), 1)
	if customAnalysis.enumerations != 1 {
		t.Errorf("enumerations = %d, want 1", customAnalysis.enumerations)
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// nil registrations are ignored
	SetAnalysisHooks(nil)
	if Analysis() != customAnalysis {
		t.Error("SetAnalysisHooks(nil) should keep existing hooks")
	}

	Reset()
	if _, ok := Analysis().(NoopAnalysisHooks); !ok {
		t.Error("Reset() should restore noop hooks")
	}
}
