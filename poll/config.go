package poll

import (
	"fmt"
	"time"

	"github.com/shono-io/edgeship/sdk"
)

const (
	APIKeyProfile = "apikey"
	OAuthProfile  = "oauth"
)

type Config struct {
	// MaxChecks is the check cap. With InclusiveBound the loop runs while
	// the count is <= MaxChecks, which allows one extra check.
	MaxChecks      int
	InclusiveBound bool

	BaseDelay time.Duration
	MinDelay  time.Duration

	// WaitFirst also waits delay(0) before the very first check.
	WaitFirst bool

	// SuccessStatuses are terminal statuses accepted besides Succeeded.
	SuccessStatuses []sdk.OperationStatus
}

// Profiles are the two tunings the submission flows have shipped with.
var Profiles = map[string]Config{
	APIKeyProfile: {
		MaxChecks:      6,
		InclusiveBound: true,
		BaseDelay:      time.Second,
		MinDelay:       10 * time.Millisecond,
		WaitFirst:      true,
	},
	OAuthProfile: {
		MaxChecks:      5,
		InclusiveBound: false,
		BaseDelay:      time.Second,
		MinDelay:       10 * time.Millisecond,
		WaitFirst:      true,
	},
}

func Profile(name string) (Config, error) {
	cfg, fnd := Profiles[name]
	if !fnd {
		return Config{}, fmt.Errorf("unknown poll profile %q", name)
	}
	return cfg, nil
}

// Checks is the effective number of status checks allowed.
func (c Config) Checks() int {
	if c.InclusiveBound {
		return c.MaxChecks + 1
	}
	return c.MaxChecks
}

func (c Config) Validate() error {
	if c.Checks() < 1 {
		return fmt.Errorf("poll cap must allow at least one check (max checks %d)", c.MaxChecks)
	}
	if c.BaseDelay < 0 || c.MinDelay < 0 {
		return fmt.Errorf("poll delays must not be negative")
	}
	return nil
}

func (c Config) Schedule() *Schedule {
	return &Schedule{
		BaseDelay: c.BaseDelay,
		MinDelay:  c.MinDelay,
		MaxChecks: c.Checks(),
		WaitFirst: c.WaitFirst,
	}
}

func (c Config) succeeded(status sdk.OperationStatus) bool {
	if status == sdk.SucceededStatus {
		return true
	}
	for _, s := range c.SuccessStatuses {
		if s == status {
			return true
		}
	}
	return false
}
