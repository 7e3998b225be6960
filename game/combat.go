package game

// CombatResolver decides what happens when a fleet lands on a planet owned
// by another team. The rule for settling a contested planet is left open,
// so it is injected into the System rather than hard-coded.
type CombatResolver interface {
	Engage(p *Planet, attacker *Team, amount int)
}

// AccumulateFighters queues arriving enemies in the planet's fighters
// multiset and never declares a winner.
type AccumulateFighters struct{}

// Engage adds the fleet to the fighters multiset
func (AccumulateFighters) Engage(p *Planet, attacker *Team, amount int) {
	p.AddFighters(attacker, amount)
}

// Observer is notified of simulation events that clients need to hear about.
// The simulation never talks to the network itself.
type Observer interface {
	OnShipsCreated(p *Planet, n, cost int)
	OnSpawnCreated(p *Planet, force bool)
	OnShipsSent(s *Ship)
	OnArrival(p *Planet, team *Team, amount int)
}
