package game

import "math"

// Planet is an orbiting production and combat node. Its position is a pure
// function of Age, which is what lets clients replay motion from a snapshot
// without ever receiving coordinates.
type Planet struct {
	ID               int     `json:"id"`
	Radius           float64 `json:"radius"`
	RotationConstant float64 `json:"rotationConstant"`
	StartAngle       float64 `json:"startAngle"`
	OPM              float64 `json:"opm"` // orbits per minute
	Age              float64 `json:"age"` // seconds

	Team         *Team   `json:"-"`
	ShipCount    int     `json:"shipCount"`
	Spawns       int     `json:"spawnCount"`
	PixelCounter float64 `json:"pixelCounter"`

	pixelRate float64
	fighters  map[int]int // team ID -> ships waiting to fight

	orbit  *Orbit
	system *System
}

// NewPlanet creates a planet whose phase starts at startAngle
func NewPlanet(radius, rotationConstant, startAngle, opm float64) *Planet {
	p := &Planet{
		ID:               -1,
		Radius:           radius,
		RotationConstant: rotationConstant,
		StartAngle:       startAngle,
		OPM:              opm,
		fighters:         make(map[int]int),
	}
	if s := p.Speed(); s != 0 {
		p.Age = startAngle / s
	}
	return p
}

// Speed is the angular velocity in radians per second
func (p *Planet) Speed() float64 {
	return p.OPM * 2 * math.Pi / 60
}

// Position is the current position on the orbit
func (p *Planet) Position() Vec {
	return p.PositionAt(0)
}

// PositionAt is the position extraAge seconds from now
func (p *Planet) PositionAt(extraAge float64) Vec {
	if p.orbit == nil {
		return Vec{}
	}
	angle := (p.Age + extraAge) * p.Speed()
	return Vec{
		X: p.orbit.X + p.orbit.Radius*math.Cos(angle),
		Y: p.orbit.Y + p.orbit.Radius*math.Sin(angle),
	}
}

// PixelRate is the current accrual rate in pixels per second
func (p *Planet) PixelRate() float64 {
	return p.pixelRate
}

// TeamID returns the owner's ID or NoTeam
func (p *Planet) TeamID() int {
	if p.Team == nil {
		return NoTeam
	}
	return p.Team.ID
}

// SetTeam changes ownership
func (p *Planet) SetTeam(t *Team) {
	p.Team = t
}

func (p *Planet) update(delta float64) {
	p.Age += delta

	// Nobody collects from an unowned planet, so nothing builds up for the
	// first owner either
	if p.Team == nil {
		return
	}
	p.PixelCounter += p.pixelRate * delta
	// Only whole pixels leave the accumulator so nothing is lost between ticks
	if whole := math.Floor(p.PixelCounter); whole >= 1 {
		p.PixelCounter -= whole
		p.Team.AddPixels(int(whole))
	}
}

// CreateShips buys n ships for cost pixels. Unless force is set the request
// must fit a purchase tier and the owner must afford it; rejected requests
// leave every balance untouched and report false.
func (p *Planet) CreateShips(n, cost int, force bool) bool {
	if n <= 0 {
		return false
	}
	if !force {
		if p.Team == nil || !ValidPurchase(n, cost) || !p.Team.CanAfford(cost) {
			return false
		}
		p.Team.AddPixels(-cost)
	} else {
		cost = 0
	}

	p.ShipCount += n
	if p.Team != nil {
		p.Team.ShipCount += n
	}
	if obs := p.observer(); obs != nil {
		obs.OnShipsCreated(p, n, cost)
	}
	return true
}

// CreateSpawn builds one spawn structure. Forced spawns are free and skip
// validation (used for starting planets and snapshot loads).
func (p *Planet) CreateSpawn(force bool) bool {
	return p.createSpawn(force, false)
}

func (p *Planet) createSpawn(force, loading bool) bool {
	if !force {
		if p.Team == nil || p.Spawns >= MaxSpawns || !p.Team.CanAfford(SpawnCost) {
			return false
		}
		p.Team.AddPixels(-SpawnCost)
	}

	p.Spawns++
	p.pixelRate = PixelRate(p.Spawns)

	if !loading {
		if obs := p.observer(); obs != nil {
			obs.OnSpawnCreated(p, force)
		}
	}
	return true
}

// removeShips takes up to n ships off the planet and returns how many left
func (p *Planet) removeShips(n int) int {
	if n > p.ShipCount {
		n = p.ShipCount
	}
	if n < 0 {
		n = 0
	}
	p.ShipCount -= n
	if p.Team != nil {
		p.Team.ShipCount -= n
	}
	return n
}

// Arrive resolves a fleet of amount ships from team landing here
func (p *Planet) Arrive(team *Team, amount int) {
	if amount <= 0 || team == nil {
		return
	}
	switch {
	case p.Team == nil:
		// Colonise: the fleet becomes the garrison
		p.SetTeam(team)
		p.ShipCount += amount
		team.ShipCount += amount
	case p.Team == team:
		p.ShipCount += amount
		team.ShipCount += amount
	default:
		p.combat().Engage(p, team, amount)
	}
	if obs := p.observer(); obs != nil {
		obs.OnArrival(p, team, amount)
	}
}

// AddFighters queues n ships from team to fight over this planet
func (p *Planet) AddFighters(team *Team, n int) {
	if n <= 0 || team == nil {
		return
	}
	p.fighters[team.ID] += n
}

// Fighters returns a copy of the contested-ships multiset keyed by team ID
func (p *Planet) Fighters() map[int]int {
	out := make(map[int]int, len(p.fighters))
	for id, n := range p.fighters {
		out[id] = n
	}
	return out
}

// FighterCount totals every queued fighter
func (p *Planet) FighterCount() int {
	total := 0
	for _, n := range p.fighters {
		total += n
	}
	return total
}

// ClearFighters empties the multiset, returning what it held
func (p *Planet) ClearFighters() map[int]int {
	old := p.fighters
	p.fighters = make(map[int]int)
	return old
}

func (p *Planet) observer() Observer {
	if p.system == nil {
		return nil
	}
	return p.system.observer
}

func (p *Planet) combat() CombatResolver {
	if p.system == nil || p.system.combat == nil {
		return AccumulateFighters{}
	}
	return p.system.combat
}
