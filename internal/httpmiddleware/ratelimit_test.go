package httpmiddleware

import "testing"

func TestTokenBucketExhaustion(t *testing.T) {
	l := NewSimpleTokenBucket(3, 60)
	for i := 0; i < 3; i++ {
		if !l.allow("1.2.3.4") {
			t.Fatalf("request %d rejected within capacity", i+1)
		}
	}
	if l.allow("1.2.3.4") {
		t.Error("request beyond capacity allowed")
	}
	// Other clients have their own bucket.
	if !l.allow("5.6.7.8") {
		t.Error("fresh client rejected")
	}
}

func TestTokenBucketDefaultsCapacity(t *testing.T) {
	l := NewSimpleTokenBucket(0, 10)
	if l.capacity != 10 {
		t.Errorf("capacity = %v, want rate fallback 10", l.capacity)
	}
}
