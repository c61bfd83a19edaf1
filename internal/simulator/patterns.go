package simulator

import (
	"math"
	"math/rand"
	"time"
)

// Pattern shapes a base utilisation value over time. Implementations take the
// evaluation time explicitly so generated series are reproducible in tests.
type Pattern interface {
	Apply(base float64, at time.Time) float64
	Name() string
}

var (
	PatternSteady Pattern = &SteadyPattern{}
	PatternDaily  Pattern = &DailyPattern{}
	PatternWeekly Pattern = &WeeklyPattern{}
	PatternRandom Pattern = &RandomPattern{}
)

func ParsePattern(name string) Pattern {
	switch name {
	case "daily":
		return PatternDaily
	case "weekly":
		return PatternWeekly
	case "random":
		return PatternRandom
	case "gradual_rise":
		return &GradualRisePattern{startTime: time.Now()}
	case "sine":
		return &SineWavePattern{}
	default:
		return PatternSteady
	}
}

// SteadyPattern holds the base value constant.
type SteadyPattern struct{}

func (p *SteadyPattern) Apply(base float64, _ time.Time) float64 {
	return base
}

func (p *SteadyPattern) Name() string {
	return "steady"
}

// DailyPattern follows a business-hours traffic cycle: morning and afternoon
// peaks, quiet overnight.
type DailyPattern struct{}

func (p *DailyPattern) Apply(base float64, at time.Time) float64 {
	hour := at.Hour()

	var modifier float64
	switch {
	case hour >= 9 && hour <= 11:
		modifier = 1.4
	case hour >= 14 && hour <= 16:
		modifier = 1.3
	case hour >= 17 && hour <= 20:
		modifier = 1.1
	case hour >= 0 && hour <= 6:
		modifier = 0.6
	default:
		modifier = 1.0
	}

	return clampPct(base * modifier)
}

func (p *DailyPattern) Name() string {
	return "daily"
}

// WeeklyPattern is the daily cycle with weekends halved.
type WeeklyPattern struct{}

func (p *WeeklyPattern) Apply(base float64, at time.Time) float64 {
	weekday := at.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return clampPct(base * 0.5)
	}
	return PatternDaily.Apply(base, at)
}

func (p *WeeklyPattern) Name() string {
	return "weekly"
}

// RandomPattern produces unpredictable swings around the base.
type RandomPattern struct{}

func (p *RandomPattern) Apply(base float64, _ time.Time) float64 {
	modifier := 0.5 + rand.Float64()
	result := clampPct(base * modifier)
	if result < 5 {
		result = 5
	}
	return result
}

func (p *RandomPattern) Name() string {
	return "random"
}

// GradualRisePattern increases load 2% per minute from its start time, capped
// at a 50% rise. Useful for exercising trend detection.
type GradualRisePattern struct {
	startTime time.Time
}

func (p *GradualRisePattern) Apply(base float64, at time.Time) float64 {
	minutes := at.Sub(p.startTime).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	increase := math.Min(minutes*2, 50)
	return clampPct(base * (1 + increase/100))
}

func (p *GradualRisePattern) Name() string {
	return "gradual_rise"
}

// SineWavePattern oscillates around the base value.
type SineWavePattern struct {
	Period    time.Duration
	Amplitude float64
}

func (p *SineWavePattern) Apply(base float64, at time.Time) float64 {
	period := p.Period
	if period == 0 {
		period = 10 * time.Minute
	}
	amplitude := p.Amplitude
	if amplitude == 0 {
		amplitude = 20
	}

	phase := float64(at.UnixNano()) / float64(period.Nanoseconds()) * 2 * math.Pi
	result := clampPct(base + math.Sin(phase)*amplitude)
	if result < 5 {
		result = 5
	}
	return result
}

func (p *SineWavePattern) Name() string {
	return "sine"
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
