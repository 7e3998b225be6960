package game

import "errors"

var (
	ErrPlanetNotFound = errors.New("planet not found")
	ErrSamePlanet     = errors.New("origin and destination are the same planet")
	ErrNoShips        = errors.New("no ships to send")
	ErrUnowned        = errors.New("origin planet has no owner")
)

// System owns the orbits, the planet arena and every fleet in flight for one
// match. Planets are addressed by arena index (their ID), never by pointer,
// across the wire and in snapshots.
type System struct {
	orbits  []*Orbit
	planets map[int]*Planet
	ships   []*Ship
	time    float64
	nextID  int

	observer Observer
	combat   CombatResolver
}

// Option configures a System
type Option func(*System)

// WithObserver routes simulation events to obs
func WithObserver(obs Observer) Option {
	return func(s *System) {
		s.observer = obs
	}
}

// WithCombat replaces the default contested-planet rule
func WithCombat(c CombatResolver) Option {
	return func(s *System) {
		s.combat = c
	}
}

// NewSystem creates an empty system
func NewSystem(opts ...Option) *System {
	s := &System{
		planets: make(map[int]*Planet),
		combat:  AccumulateFighters{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetObserver swaps the event observer
func (s *System) SetObserver(obs Observer) {
	s.observer = obs
}

// AddOrbit attaches o and registers any planets already on it
func (s *System) AddOrbit(o *Orbit) *Orbit {
	o.system = s
	s.orbits = append(s.orbits, o)
	for _, p := range o.planets {
		s.register(p)
	}
	return o
}

// register places p in the arena, handing out the next ID unless p already
// carries one that is free (snapshot loads keep their IDs).
func (s *System) register(p *Planet) {
	p.system = s
	if _, taken := s.planets[p.ID]; p.ID < 0 || taken {
		p.ID = s.createID()
	} else if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
	s.planets[p.ID] = p
}

func (s *System) createID() int {
	id := s.nextID
	s.nextID++
	return id
}

// Orbits returns the orbits in insertion order
func (s *System) Orbits() []*Orbit {
	return s.orbits
}

// Planets returns every planet, orbit by orbit
func (s *System) Planets() []*Planet {
	out := make([]*Planet, 0, len(s.planets))
	for _, o := range s.orbits {
		out = append(out, o.planets...)
	}
	return out
}

// PlanetByID looks a planet up in the arena
func (s *System) PlanetByID(id int) *Planet {
	return s.planets[id]
}

// Ships returns the fleets in flight
func (s *System) Ships() []*Ship {
	return s.ships
}

// Time is the simulation time in seconds
func (s *System) Time() float64 {
	return s.time
}

// SetTime overwrites the simulation clock (snapshot loads)
func (s *System) SetTime(t float64) {
	s.time = t
}

// Update advances the simulation by delta seconds. A paused system does not
// move at all so that paused clients stay in lockstep.
func (s *System) Update(delta float64, paused bool) {
	if paused || delta <= 0 {
		return
	}
	s.time += delta
	for _, o := range s.orbits {
		o.update(delta)
	}
	s.landShips()
}

func (s *System) landShips() {
	if len(s.ships) == 0 {
		return
	}
	flying := s.ships[:0]
	var landed []*Ship
	for _, ship := range s.ships {
		if ship.Arrived(s.time) {
			landed = append(landed, ship)
		} else {
			flying = append(flying, ship)
		}
	}
	s.ships = flying

	for _, ship := range landed {
		if dest := s.planets[ship.Destination]; dest != nil {
			dest.Arrive(ship.Team, ship.Amount)
		}
	}
}

// SendShips launches up to amount ships from one planet toward another. The
// ships leave the origin immediately; the fleet lands when the destination
// reaches the intercept point.
func (s *System) SendShips(fromID, toID, amount int) (*Ship, error) {
	from := s.planets[fromID]
	to := s.planets[toID]
	if from == nil || to == nil {
		return nil, ErrPlanetNotFound
	}
	if from == to {
		return nil, ErrSamePlanet
	}
	if from.Team == nil {
		return nil, ErrUnowned
	}
	if amount > from.ShipCount {
		amount = from.ShipCount
	}
	if amount <= 0 {
		return nil, ErrNoShips
	}

	duration, _ := TimeToIntercept(from, to, ShipSpeed)
	team := from.Team
	origin := from.Position()
	removed := from.removeShips(amount)

	ship := &Ship{
		Origin:         origin,
		From:           from.ID,
		Destination:    to.ID,
		DestinationPos: to.PositionAt(duration),
		Speed:          ShipSpeed,
		Amount:         removed,
		LaunchTime:     s.time,
		Duration:       duration,
		Team:           team,
	}
	s.ships = append(s.ships, ship)

	if s.observer != nil {
		s.observer.OnShipsSent(ship)
	}
	return ship, nil
}

// addShip restores an in-flight fleet from a snapshot
func (s *System) addShip(ship *Ship) {
	s.ships = append(s.ships, ship)
}
