package game

// Orbit is a circular path hosting an ordered set of planets
type Orbit struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`

	planets []*Planet
	system  *System
}

// NewOrbit creates an empty orbit centred on (x, y)
func NewOrbit(x, y, radius float64) *Orbit {
	return &Orbit{X: x, Y: y, Radius: radius}
}

// AddPlanet attaches p to the orbit. If the orbit already belongs to a
// system the planet is registered in the system's arena and given an ID.
func (o *Orbit) AddPlanet(p *Planet) *Planet {
	o.planets = append(o.planets, p)
	p.orbit = o
	if o.system != nil {
		o.system.register(p)
	}
	return p
}

// Planets returns the planets in insertion order
func (o *Orbit) Planets() []*Planet {
	return o.planets
}

// PlanetByID finds a planet on this orbit, or nil
func (o *Orbit) PlanetByID(id int) *Planet {
	for _, p := range o.planets {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (o *Orbit) update(delta float64) {
	for _, p := range o.planets {
		p.update(delta)
	}
}
