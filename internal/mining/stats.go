package mining

import (
	"time"

	"github.com/mixelka/zeronode/pkg/models"
)

// Stats is the locally derived view of a mining session
type Stats struct {
	ElapsedHours float64
	Points       float64 // never negative
}

// Estimate computes the points accrued by the session at now.
// Elapsed time excludes the reported downtime. A session without a start accrues nothing.
func Estimate(s *models.MiningSnapshot, now time.Time) Stats {
	if s.Start.IsZero() {
		return Stats{}
	}

	elapsed := now.Sub(s.Start.Time) - s.MissDuration()
	hours := elapsed.Hours()

	points := hours * s.Hourly
	if points < 0 {
		points = 0
	}

	return Stats{ElapsedHours: hours, Points: points}
}
