package game

// Member is anything that can sit on a team roster
type Member interface {
	Name() string
}

// Team is one colour faction: a currency ledger plus a roster
type Team struct {
	ID     int    `json:"id"`
	Colour Colour `json:"colour"`

	Pixels    int `json:"pixels"`
	ShipCount int `json:"shipCount"`

	players []Member
}

// NewTeam creates an empty team for the given colour slot
func NewTeam(colour Colour, id int) *Team {
	return &Team{ID: id, Colour: colour}
}

// NewTeams creates the six fixed faction teams in colour order
func NewTeams() []*Team {
	teams := make([]*Team, 0, len(Colours))
	for i, c := range Colours {
		teams = append(teams, NewTeam(c, i))
	}
	return teams
}

// AddPixels adjusts the balance. It never clamps; callers validate
// negative deltas against the balance before calling.
func (t *Team) AddPixels(delta int) {
	t.Pixels += delta
}

// SetPixels overwrites the balance
func (t *Team) SetPixels(pixels int) {
	t.Pixels = pixels
}

// CanAfford reports whether the balance covers cost
func (t *Team) CanAfford(cost int) bool {
	return cost >= 0 && t.Pixels >= cost
}

// AddPlayer puts m on the roster if it is not already there
func (t *Team) AddPlayer(m Member) {
	for _, p := range t.players {
		if p == m {
			return
		}
	}
	t.players = append(t.players, m)
}

// RemovePlayer takes m off the roster. It is a no-op if m is absent.
func (t *Team) RemovePlayer(m Member) {
	for i, p := range t.players {
		if p == m {
			t.players = append(t.players[:i], t.players[i+1:]...)
			return
		}
	}
}

// Players returns the roster
func (t *Team) Players() []Member {
	return t.players
}

// PlayerNames returns the roster names in join order
func (t *Team) PlayerNames() []string {
	names := make([]string, 0, len(t.players))
	for _, p := range t.players {
		names = append(names, p.Name())
	}
	return names
}

// HasPlayers reports whether anyone is on the roster
func (t *Team) HasPlayers() bool {
	return len(t.players) > 0
}

// TeamByID finds a team by numeric ID, or nil
func TeamByID(teams []*Team, id int) *Team {
	for _, t := range teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// PopulatedTeams filters out teams with an empty roster
func PopulatedTeams(teams []*Team) []*Team {
	out := make([]*Team, 0, len(teams))
	for _, t := range teams {
		if t.HasPlayers() {
			out = append(out, t)
		}
	}
	return out
}
