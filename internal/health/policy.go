package health

import (
	"fmt"
	"time"

	"github.com/OldStager01/fleet-health/pkg/models"
)

// Hold is the downgrade requirement while sitting in a given status: minimum
// time since the last change plus the number of recent samples that must
// agree with the candidate better status.
type Hold struct {
	MinHold         time.Duration
	RequiredSamples int
}

// Policy maps each automatic status to its downgrade hold. Worse states get
// shorter holds so recovery out of them is confirmed quickly.
type Policy map[models.ServerStatus]Hold

func DefaultPolicy() Policy {
	return Policy{
		models.StatusDanger:   {MinHold: 1 * time.Minute, RequiredSamples: 1},
		models.StatusCritical: {MinHold: 2 * time.Minute, RequiredSamples: 2},
		models.StatusWarning:  {MinHold: 3 * time.Minute, RequiredSamples: 2},
		models.StatusHealthy:  {MinHold: 5 * time.Minute, RequiredSamples: 3},
		models.StatusOffline:  {MinHold: 0, RequiredSamples: 1},
	}
}

// Validate is run at startup so a bad policy fails fast instead of silently
// freezing servers in a status.
func (p Policy) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("hysteresis policy is empty")
	}
	for status, hold := range p {
		if !status.IsValid() {
			return fmt.Errorf("hysteresis policy references unknown status %q", status)
		}
		if hold.MinHold < 0 {
			return fmt.Errorf("hysteresis policy for %s has negative min hold", status)
		}
		if hold.RequiredSamples < 1 {
			return fmt.Errorf("hysteresis policy for %s requires at least 1 sample", status)
		}
	}
	return nil
}

// MaxRequiredSamples is the minimum ring buffer capacity the policy needs.
func (p Policy) MaxRequiredSamples() int {
	max := 1
	for _, hold := range p {
		if hold.RequiredSamples > max {
			max = hold.RequiredSamples
		}
	}
	return max
}
