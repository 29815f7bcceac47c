package ratelimit

import "testing"

func TestIntegrationLimiterAllowsBurst(t *testing.T) {
	l := NewIntegrationLimiter()

	for i := 0; i < defaultBurst; i++ {
		if !l.Allow("integration-a") {
			t.Fatalf("expected request %d within burst to be allowed", i)
		}
	}

	if l.Allow("integration-a") {
		t.Fatal("expected request beyond burst to be rejected")
	}
}

func TestIntegrationLimiterIsolatedPerIntegration(t *testing.T) {
	l := NewIntegrationLimiter()

	for i := 0; i < defaultBurst; i++ {
		l.Allow("integration-a")
	}
	if l.Allow("integration-a") {
		t.Fatal("expected integration-a to be exhausted")
	}

	if !l.Allow("integration-b") {
		t.Fatal("expected a different integration to have its own budget")
	}
}
