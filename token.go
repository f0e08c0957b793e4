package tokenring

import "fmt"

// A Token is the unique permission object whose possession authorizes
// critical-section execution. The epoch is stamped at each regeneration
// and is the authoritative staleness tie-break: exactly one token carries
// the maximum observed epoch at any instant. The rotation counter is
// incremented on every hand-off and detects duplicated or reordered token
// messages within an epoch.
type Token struct {
	Epoch    uint64 // Regeneration epoch
	Rotation Seq    // Hand-off counter within the epoch
}

// Default format output.
func (t Token) String() string {
	return fmt.Sprintf("Token{ Epoch: %v, Rotation: %v }", t.Epoch, t.Rotation)
}

// Stale reports whether the token is superseded by the given epoch and
// rotation watermark. A token from an older epoch is always stale; a token
// from the current epoch is stale if its rotation counter does not advance
// past the watermark.
func (t Token) Stale(epoch uint64, rotation Seq) bool {
	if t.Epoch != epoch {
		return t.Epoch < epoch
	}
	return rotation.Compare(t.Rotation) >= 0
}
