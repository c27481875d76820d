package main

import (
	"testing"
	"time"

	"multisim.dev/internal/protocol"
)

func TestTwistFor(t *testing.T) {
	if got := twistFor("straight", 0, 0.2, 1, time.Second); got != (protocol.Twist{VX: 0.2}) {
		t.Fatalf("straight=%+v", got)
	}
	if got := twistFor("zigzag", 500*time.Millisecond, 0.1, 1, time.Second); got.Omega != 1 {
		t.Fatalf("zigzag first half=%+v", got)
	}
	if got := twistFor("zigzag", 1500*time.Millisecond, 0.1, 1, time.Second); got.Omega != -1 {
		t.Fatalf("zigzag second half=%+v", got)
	}
	if got := twistFor("unknown", 0, 0.1, 0.5, time.Second); got != (protocol.Twist{VX: 0.1, Omega: 0.5}) {
		t.Fatalf("default=%+v", got)
	}
}

func TestMinRange(t *testing.T) {
	if r, ok := minRange([]float64{0, 2.5, 0.4, 0}); !ok || r != 0.4 {
		t.Fatalf("min=%v ok=%v", r, ok)
	}
	if _, ok := minRange([]float64{0, 0}); ok {
		t.Fatalf("all-zero scan should report no return")
	}
}
