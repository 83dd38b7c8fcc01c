// internal/telemetry/generator.go
package telemetry

import (
	"math/rand"
	"time"

	"live-temp-dashboard/internal/data"
)

// Source is the random source the generator draws from. Float64 returns a
// value in [0, 1).
type Source interface {
	Float64() float64
}

// Clock abstracts time.Now.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// WallClock reads the local system time.
var WallClock Clock = wallClock{}

// Range is a closed Celsius interval [Lo, Hi].
type Range struct {
	Lo float64 `mapstructure:"lo" json:"lo"`
	Hi float64 `mapstructure:"hi" json:"hi"`
}

// Generator synthesizes readings uniformly distributed over a Celsius range.
type Generator struct {
	rng   Source
	clock Clock
	span  Range
}

// NewGenerator returns a generator over span. Nil rng or clock fall back to a
// time-seeded math/rand source and the wall clock.
func NewGenerator(span Range, rng Source, clock Clock) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if clock == nil {
		clock = WallClock
	}
	return &Generator{rng: rng, clock: clock, span: span}
}

func (g *Generator) Range() Range { return g.span }

// Next draws one reading. The rounded Celsius value is clamped to the range;
// range bounds are kept on the 0.1 grid by config validation.
func (g *Generator) Next() data.Reading {
	c := data.Round1(g.span.Lo + g.rng.Float64()*(g.span.Hi-g.span.Lo))
	if c < g.span.Lo {
		c = g.span.Lo
	} else if c > g.span.Hi {
		c = g.span.Hi
	}
	return data.NewReading(c, g.clock.Now())
}
