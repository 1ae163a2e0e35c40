package poll

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var _ backoff.BackOff = (*Schedule)(nil)

// Delay is the wait before the check with 0-based index i:
// max(min, base * 2^i). It saturates instead of overflowing.
func Delay(base, min time.Duration, i int) time.Duration {
	d := base
	for n := 0; n < i && d > 0; n++ {
		if d > math.MaxInt64/2 {
			d = math.MaxInt64
			break
		}
		d *= 2
	}

	if d < min {
		return min
	}
	return d
}

// Schedule hands out the wait before each status check and returns
// backoff.Stop once the check cap is used up.
type Schedule struct {
	BaseDelay time.Duration
	MinDelay  time.Duration
	MaxChecks int
	WaitFirst bool

	next int
}

func (s *Schedule) NextBackOff() time.Duration {
	i := s.next
	if i >= s.MaxChecks {
		return backoff.Stop
	}
	s.next++

	if i == 0 && !s.WaitFirst {
		return 0
	}
	return Delay(s.BaseDelay, s.MinDelay, i)
}

func (s *Schedule) Reset() {
	s.next = 0
}

// Worst is the longest total time the schedule can spend sleeping.
func (s *Schedule) Worst() time.Duration {
	var total time.Duration
	for i := 0; i < s.MaxChecks; i++ {
		if i == 0 && !s.WaitFirst {
			continue
		}
		d := Delay(s.BaseDelay, s.MinDelay, i)
		if total > math.MaxInt64-d {
			return math.MaxInt64
		}
		total += d
	}
	return total
}
