package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestNewPerSecondLimiter(t *testing.T) {
	if NewPerSecondLimiter(0) != nil {
		t.Fatal("expected nil limiter for zero rate")
	}
	if NewPerSecondLimiter(-3) != nil {
		t.Fatal("expected nil limiter for negative rate")
	}

	l := NewPerSecondLimiter(2)
	if l == nil {
		t.Fatal("expected limiter for positive rate")
	}
	if !l.Allow(2) {
		t.Error("expected full burst to be available")
	}
	if l.Allow(1) {
		t.Error("expected burst to be exhausted")
	}
}

func TestLimiter_NilNeverThrottles(t *testing.T) {
	var l *Limiter
	for i := 0; i < 100; i++ {
		if !l.Allow(1) {
			t.Fatal("nil limiter rejected an event")
		}
	}
	if err := l.Wait(context.Background(), 1); err != nil {
		t.Fatalf("nil limiter Wait failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx, 1); err == nil {
		t.Fatal("expected canceled context to be reported")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1) // consume burst

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx, 1)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Wait returned too early")
	}
}
