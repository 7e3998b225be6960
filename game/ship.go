package game

import "math"

// Ship is one fleet in transit. It is pure data: once launched nothing about
// it changes until the system time passes LaunchTime+Duration.
type Ship struct {
	Origin         Vec     `json:"origin"`
	From           int     `json:"from"`
	Destination    int     `json:"destination"`
	DestinationPos Vec     `json:"destinationPos"`
	Speed          float64 `json:"speed"`
	Amount         int     `json:"amount"`
	LaunchTime     float64 `json:"launchTime"`
	Duration       float64 `json:"duration"`

	Team *Team `json:"-"`
}

// ArrivalTime is the system time at which the fleet lands
func (s *Ship) ArrivalTime() float64 {
	return s.LaunchTime + s.Duration
}

// Arrived reports whether the fleet has landed by system time now
func (s *Ship) Arrived(now float64) bool {
	return now-s.LaunchTime >= s.Duration
}

// PositionAt interpolates the fleet's position at system time now
func (s *Ship) PositionAt(now float64) Vec {
	if s.Duration <= 0 {
		return s.DestinationPos
	}
	f := (now - s.LaunchTime) / s.Duration
	f = math.Max(0, math.Min(1, f))
	return Vec{
		X: s.Origin.X + (s.DestinationPos.X-s.Origin.X)*f,
		Y: s.Origin.Y + (s.DestinationPos.Y-s.Origin.Y)*f,
	}
}

// TimeToIntercept finds the earliest t >= 0 at which a fleet leaving from's
// current position at speed reaches to's position t seconds from now. The
// target keeps moving along its orbit, so this walks t forward with a step
// that shrinks as the residual shrinks. If the search does not settle within
// InterceptMaxIterations the last t is returned with converged=false; callers
// treat the duration as approximate either way.
func TimeToIntercept(from, to *Planet, speed float64) (t float64, converged bool) {
	if speed <= 0 || from == nil || to == nil {
		return 0, false
	}
	launch := from.Position()

	for i := 0; i < InterceptMaxIterations; i++ {
		travel := Distance(launch, to.PositionAt(t)) / speed
		diff := travel - t

		switch {
		case diff < InterceptTolerance:
			return t, true
		case diff < 2:
			t += 0.1
		case diff < 4:
			t += 0.5
		default:
			t += 1
		}
	}
	return t, false
}
