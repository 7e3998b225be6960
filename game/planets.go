package game

import "math"

// DefaultTemplate returns the standard map: four concentric orbits around
// the origin. The second orbit is a team orbit, so every active team gets a
// starting planet with one free spawn, spaced evenly around it.
func DefaultTemplate() SystemSnapshot {
	planetData := []struct {
		orbitRadius float64
		planet      PlanetSnapshot
		teamOrbit   *TeamOrbitTemplate
	}{
		{150, PlanetSnapshot{Radius: 12, RotationConstant: -1.0 / 4, StartAngle: math.Pi / 2, OPM: 2}, nil},
		{220, PlanetSnapshot{}, &TeamOrbitTemplate{Radius: 12, RotationConstant: -1.0 / 6, OPM: 1}},
		{270, PlanetSnapshot{Radius: 12, RotationConstant: 1.0 / 3, StartAngle: math.Pi / 4, OPM: 1.0 / 2}, nil},
		{360, PlanetSnapshot{Radius: 12, RotationConstant: -0.5, StartAngle: 3 * math.Pi / 4, OPM: 1.0 / 4}, nil},
	}

	snap := SystemSnapshot{Orbits: make([]OrbitSnapshot, 0, len(planetData))}
	for _, pd := range planetData {
		orbit := OrbitSnapshot{Radius: pd.orbitRadius, Planets: []PlanetSnapshot{}}
		if pd.teamOrbit != nil {
			orbit.TeamOrbit = pd.teamOrbit
		} else {
			orbit.Planets = append(orbit.Planets, pd.planet)
		}
		snap.Orbits = append(snap.Orbits, orbit)
	}
	return snap
}
