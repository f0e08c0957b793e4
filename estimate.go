package tokenring

import (
	"math"
	"sync/atomic"
	"time"
)

// Estimate implements the Jacobson/Karels algorithm for estimating the
// token rotation time from observed inter-arrival intervals. The
// formulation used is from Section 3.5 of Computer Networking: A Top-Down
// Approach by Kurose and Ross. The circulation timeout is bounded from
// below by the configured suspicion timeout and from above by nothing:
// a slow ring raises its own timeout instead of raising false suspicions.
type Estimate struct {
	mean int64
	dev  int64
}

// Set the mean interval to the given value and set the deviation to zero.
// Use this method to seed the estimate before the first full rotation is
// observed.
func (e *Estimate) Hint(mean time.Duration) {
	atomic.StoreInt64(&e.mean, int64(mean))
	atomic.StoreInt64(&e.dev, 0)
}

// Atomically read the estimated mean interval.
func (e *Estimate) Mean() time.Duration {
	return time.Duration(atomic.LoadInt64(&e.mean))
}

// Atomically read the estimated interval deviation.
func (e *Estimate) Deviation() time.Duration {
	return time.Duration(atomic.LoadInt64(&e.dev))
}

// Update the estimate using an observed rotation interval.
func (e *Estimate) Sample(v time.Duration) {
	e.SampleWith(v, 0.125, 0.25)
}

// Update the estimate using an observed rotation interval with the
// specified gain parameters.
func (e *Estimate) SampleWith(v time.Duration, a, b float64) {
	mean := atomic.LoadInt64(&e.mean)
	dev := atomic.LoadInt64(&e.dev)

	// calculate new estimates
	newMean := int64((1.0-a)*float64(mean) + a*float64(v))
	newDev := int64((1.0-b)*float64(dev) + b*math.Abs(float64(v)-float64(mean)))

	// atomically update estimates
	atomic.CompareAndSwapInt64(&e.mean, mean, newMean)
	atomic.CompareAndSwapInt64(&e.dev, dev, newDev)
}

// Calculate the suspicion deadline interval as mean + 4 deviations.
func (e *Estimate) Timeout() time.Duration {
	return e.Mean() + 4*e.Deviation()
}
