package game

import (
	"encoding/json"
	"fmt"
	"math"
)

// PlanetSnapshot is the wire form of a planet. The first four fields are the
// template; the optional ones carry live state and are only written for a
// literal save.
type PlanetSnapshot struct {
	Radius           float64 `json:"radius"`
	RotationConstant float64 `json:"rotationConstant"`
	StartAngle       float64 `json:"startAngle"`
	OPM              float64 `json:"opm"`

	ID           *int        `json:"id,omitempty"`
	Team         *int        `json:"team,omitempty"`
	ShipCount    *int        `json:"shipCount,omitempty"`
	SpawnCount   *int        `json:"spawnCount,omitempty"`
	PixelCounter *float64    `json:"pixelCounter,omitempty"`
	Age          *float64    `json:"age,omitempty"`
	Fighters     map[int]int `json:"fighters,omitempty"`
}

// TeamOrbitTemplate expands into one starting planet per eligible team,
// evenly spaced around the orbit, each owned by its team with one spawn.
type TeamOrbitTemplate struct {
	Radius           float64 `json:"radius"`
	RotationConstant float64 `json:"rotationConstant"`
	OPM              float64 `json:"opm"`
	Teams            []int   `json:"teams,omitempty"` // indices into the active team list; empty means all
}

// OrbitSnapshot is the wire form of an orbit
type OrbitSnapshot struct {
	X         float64            `json:"x"`
	Y         float64            `json:"y"`
	Radius    float64            `json:"radius"`
	Planets   []PlanetSnapshot   `json:"planets"`
	TeamOrbit *TeamOrbitTemplate `json:"teamOrbit,omitempty"`
}

// ShipSnapshot is the wire form of a fleet in flight
type ShipSnapshot struct {
	From           int     `json:"from"`
	Destination    int     `json:"destination"`
	Origin         Vec     `json:"origin"`
	DestinationPos Vec     `json:"destinationPos"`
	Speed          float64 `json:"speed"`
	Amount         int     `json:"amount"`
	Team           int     `json:"team"`
	LaunchTime     float64 `json:"launchTime"`
	Duration       float64 `json:"duration"`
}

// SystemSnapshot is what CREATE_SYSTEM carries
type SystemSnapshot struct {
	Orbits []OrbitSnapshot `json:"orbits"`
	Time   *float64        `json:"time,omitempty"`
	Ships  []ShipSnapshot  `json:"ships,omitempty"`
}

// Save captures the planet. literal adds live state.
func (p *Planet) Save(literal bool) PlanetSnapshot {
	snap := PlanetSnapshot{
		Radius:           p.Radius,
		RotationConstant: p.RotationConstant,
		StartAngle:       p.StartAngle,
		OPM:              p.OPM,
	}
	if literal {
		id, team, ships, spawns := p.ID, p.TeamID(), p.ShipCount, p.Spawns
		counter, age := p.PixelCounter, p.Age
		snap.ID = &id
		snap.Team = &team
		snap.ShipCount = &ships
		snap.SpawnCount = &spawns
		snap.PixelCounter = &counter
		snap.Age = &age
		if len(p.fighters) > 0 {
			snap.Fighters = p.Fighters()
		}
	}
	return snap
}

// Save captures the orbit and its planets
func (o *Orbit) Save(literal bool) OrbitSnapshot {
	snap := OrbitSnapshot{
		X:       o.X,
		Y:       o.Y,
		Radius:  o.Radius,
		Planets: make([]PlanetSnapshot, 0, len(o.planets)),
	}
	for _, p := range o.planets {
		snap.Planets = append(snap.Planets, p.Save(literal))
	}
	return snap
}

// Save captures the whole system. A literal save also carries the clock and
// every fleet in flight.
func (s *System) Save(literal bool) SystemSnapshot {
	snap := SystemSnapshot{Orbits: make([]OrbitSnapshot, 0, len(s.orbits))}
	for _, o := range s.orbits {
		snap.Orbits = append(snap.Orbits, o.Save(literal))
	}
	if literal {
		t := s.time
		snap.Time = &t
		for _, ship := range s.ships {
			team := NoTeam
			if ship.Team != nil {
				team = ship.Team.ID
			}
			snap.Ships = append(snap.Ships, ShipSnapshot{
				From:           ship.From,
				Destination:    ship.Destination,
				Origin:         ship.Origin,
				DestinationPos: ship.DestinationPos,
				Speed:          ship.Speed,
				Amount:         ship.Amount,
				Team:           team,
				LaunchTime:     ship.LaunchTime,
				Duration:       ship.Duration,
			})
		}
	}
	return snap
}

// LoadPlanet rebuilds a planet from its snapshot. Ownership is resolved
// against teams; unknown team IDs leave the planet unowned.
func LoadPlanet(snap PlanetSnapshot, teams []*Team) *Planet {
	p := NewPlanet(snap.Radius, snap.RotationConstant, snap.StartAngle, snap.OPM)
	if snap.ID != nil {
		p.ID = *snap.ID
	}
	if snap.Team != nil && *snap.Team != NoTeam {
		p.SetTeam(TeamByID(teams, *snap.Team))
	}
	if snap.ShipCount != nil && *snap.ShipCount > 0 {
		p.ShipCount = *snap.ShipCount
	}
	if snap.SpawnCount != nil {
		for i := 0; i < *snap.SpawnCount && i < MaxSpawns; i++ {
			p.createSpawn(true, true)
		}
	}
	if snap.PixelCounter != nil {
		p.PixelCounter = *snap.PixelCounter
	}
	if snap.Age != nil {
		p.Age = *snap.Age
	}
	for id, n := range snap.Fighters {
		if t := TeamByID(teams, id); t != nil {
			p.AddFighters(t, n)
		}
	}
	return p
}

// expandTeamOrbit turns a team-orbit template into concrete planet snapshots
func expandTeamOrbit(tmpl *TeamOrbitTemplate, teams []*Team) []PlanetSnapshot {
	var eligible []int
	if len(tmpl.Teams) == 0 {
		for _, t := range teams {
			eligible = append(eligible, t.ID)
		}
	} else {
		for i, t := range teams {
			for _, idx := range tmpl.Teams {
				if i == idx {
					eligible = append(eligible, t.ID)
					break
				}
			}
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	rotation := 2 * math.Pi / float64(len(eligible))
	out := make([]PlanetSnapshot, 0, len(eligible))
	for i, id := range eligible {
		team, spawns := id, 1
		out = append(out, PlanetSnapshot{
			Radius:           tmpl.Radius,
			RotationConstant: tmpl.RotationConstant,
			StartAngle:       rotation * float64(i),
			OPM:              tmpl.OPM,
			Team:             &team,
			SpawnCount:       &spawns,
		})
	}
	return out
}

// LoadSystem rebuilds a system from a snapshot or template. Planet IDs in
// the snapshot are preserved; template planets without IDs get fresh ones.
// Options are applied after loading so observers never see load events.
func LoadSystem(snap SystemSnapshot, teams []*Team, opts ...Option) (*System, error) {
	s := NewSystem()

	for i, orb := range snap.Orbits {
		if orb.Radius <= 0 {
			return nil, fmt.Errorf("orbit %d: radius must be positive, got %v", i, orb.Radius)
		}
		orbit := s.AddOrbit(NewOrbit(orb.X, orb.Y, orb.Radius))

		planets := orb.Planets
		if orb.TeamOrbit != nil {
			planets = append(append([]PlanetSnapshot(nil), planets...), expandTeamOrbit(orb.TeamOrbit, teams)...)
		}
		for j, ps := range planets {
			if ps.ID != nil {
				if _, dup := s.planets[*ps.ID]; dup {
					return nil, fmt.Errorf("orbit %d planet %d: duplicate planet id %d", i, j, *ps.ID)
				}
			}
			orbit.AddPlanet(LoadPlanet(ps, teams))
		}
	}

	if snap.Time != nil {
		s.SetTime(*snap.Time)
	}
	recountShips(s, teams)
	for _, ss := range snap.Ships {
		if ss.Amount <= 0 {
			continue
		}
		s.addShip(&Ship{
			Origin:         ss.Origin,
			From:           ss.From,
			Destination:    ss.Destination,
			DestinationPos: ss.DestinationPos,
			Speed:          ss.Speed,
			Amount:         ss.Amount,
			LaunchTime:     ss.LaunchTime,
			Duration:       ss.Duration,
			Team:           TeamByID(teams, ss.Team),
		})
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// recountShips rebuilds every team's garrison total from the loaded planets.
// Fleets in flight are not part of it.
func recountShips(s *System, teams []*Team) {
	for _, t := range teams {
		t.ShipCount = 0
	}
	for _, p := range s.Planets() {
		if p.Team != nil {
			p.Team.ShipCount += p.ShipCount
		}
	}
}

// ParseSystemSnapshot decodes a JSON system description
func ParseSystemSnapshot(data []byte) (SystemSnapshot, error) {
	var snap SystemSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return SystemSnapshot{}, fmt.Errorf("decoding system snapshot: %w", err)
	}
	return snap, nil
}
