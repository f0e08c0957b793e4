package tokenring

import (
	"testing"
)

func TestTokenStale(t *testing.T) {

	// an older epoch is always stale, whatever the rotation
	if !(Token{Epoch: 0, Rotation: 99}).Stale(1, 0) {
		t.Fatalf("expected epoch 0 to be stale under epoch 1")
	}

	// a newer epoch is never stale
	if (Token{Epoch: 2, Rotation: 0}).Stale(1, 99) {
		t.Fatalf("expected epoch 2 to be fresh under epoch 1")
	}

	// within the epoch, the rotation must advance past the watermark
	if (Token{Epoch: 1, Rotation: 5}).Stale(1, 4) {
		t.Fatalf("expected rotation 5 to be fresh past watermark 4")
	}
	if !(Token{Epoch: 1, Rotation: 4}).Stale(1, 4) {
		t.Fatalf("expected rotation 4 to be stale at watermark 4")
	}
	if !(Token{Epoch: 1, Rotation: 3}).Stale(1, 4) {
		t.Fatalf("expected rotation 3 to be stale at watermark 4")
	}

	// rotation comparison is windowed
	if (Token{Epoch: 1, Rotation: 2}).Stale(1, Seq(halfSeq+10)) {
		t.Fatalf("expected wrapped rotation to be fresh")
	}
}
