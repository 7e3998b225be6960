package game

import (
	"math"
	"time"
)

// Simulation constants
const (
	TicksPerSecond = 30
	UpdateInterval = time.Second / TicksPerSecond

	// Economy
	StartingPixels = 100
	SpawnCost      = 200
	MaxSpawns      = 10
	MaxPixelRate   = 8.0 // pixels per second on a planet with MaxSpawns spawns

	// Fleets travel in straight lines at this many units per second
	ShipSpeed = 15.0

	// Interception search
	InterceptMaxIterations = 1000
	InterceptTolerance     = 0.5
)

// TickSeconds is the fixed simulation step. Live games and replays both
// advance by exactly this much per tick so their clocks agree bit for bit.
var TickSeconds = UpdateInterval.Seconds()

// SpawnLn normalises the logarithmic spawn curve so that a planet holding
// MaxSpawns spawns produces exactly MaxPixelRate.
var SpawnLn = math.Log(MaxSpawns + 1)

// NoTeam is the wire value for an unowned planet
const NoTeam = -1

// Colour identifies one of the six fixed faction slots
type Colour int

const (
	ColourRed Colour = iota
	ColourOrange
	ColourYellow
	ColourGreen
	ColourBlue
	ColourPurple
)

// Colours lists every faction slot in team ID order
var Colours = []Colour{ColourRed, ColourOrange, ColourYellow, ColourGreen, ColourBlue, ColourPurple}

// colourHex holds the tint clients use for each faction
var colourHex = map[Colour]int{
	ColourRed:    0xFF6666,
	ColourOrange: 0xFFB366,
	ColourYellow: 0xFFFF66,
	ColourGreen:  0x66FF66,
	ColourBlue:   0x6699FF,
	ColourPurple: 0xCC66FF,
}

var colourNames = map[Colour]string{
	ColourRed:    "red",
	ColourOrange: "orange",
	ColourYellow: "yellow",
	ColourGreen:  "green",
	ColourBlue:   "blue",
	ColourPurple: "purple",
}

// Hex returns the RGB tint for the colour
func (c Colour) Hex() int {
	return colourHex[c]
}

func (c Colour) String() string {
	if name, ok := colourNames[c]; ok {
		return name
	}
	return "unknown"
}

// ShipTier is one accepted (count, price) purchase bracket
type ShipTier struct {
	MaxShips int
	MinCost  int
}

// ShipTiers are checked in order; a purchase is valid if any tier accepts it
var ShipTiers = []ShipTier{
	{MaxShips: 10, MinCost: 10},
	{MaxShips: 100, MinCost: 90},
	{MaxShips: 1000, MinCost: 800},
}

// ValidPurchase reports whether n ships for cost pixels fits one of the tiers
func ValidPurchase(n, cost int) bool {
	if n <= 0 {
		return false
	}
	for _, tier := range ShipTiers {
		if n <= tier.MaxShips && cost >= tier.MinCost {
			return true
		}
	}
	return false
}

// PixelRate is the currency accrual rate for a planet holding spawns spawns
func PixelRate(spawns int) float64 {
	if spawns <= 0 {
		return 0
	}
	return MaxPixelRate * math.Log(float64(spawns)+1) / SpawnLn
}

// Vec is a position in world units
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance calculates distance between two points
func Distance(a, b Vec) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}
