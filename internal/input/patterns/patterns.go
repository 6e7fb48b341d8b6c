// Package patterns turns a random shape into a sequence of small relative
// pointer moves with human-like pacing.
package patterns

import (
	"math"
	"math/rand"
	"time"
)

// Point is an offset from the pointer's starting position, in pixels.
type Point struct {
	X float64
	Y float64
}

// Step is one relative move followed by a pause.
type Step struct {
	DX, DY int
	Wait   time.Duration
}

type Shape int

const (
	Circle Shape = iota
	Square
	ZigZag
	RandomWalk
	shapeCount
)

func (s Shape) String() string {
	switch s {
	case Circle:
		return "circle"
	case Square:
		return "square"
	case ZigZag:
		return "zigzag"
	case RandomWalk:
		return "random_walk"
	default:
		return "unknown"
	}
}

// Tuning holds the knobs of the generator. Delays are ranges sampled
// uniformly.
type Tuning struct {
	MinSize   float64
	MaxSize   float64
	MinPoints int
	MaxPoints int

	StepDelayMin       time.Duration
	StepDelayMax       time.Duration
	SpeedFactorMin     float64
	SpeedFactorMax     float64
	LongDistance       float64
	LongDistanceFactor float64

	PauseProbability  float64
	PauseMin          time.Duration
	PauseMax          time.Duration
	DetourProbability float64
	DetourMinDistance float64
	DetourPosition    float64
	DetourJitter      float64
	DetourSpeedMin    float64
	DetourSpeedMax    float64
	ReturnMin         time.Duration
	ReturnMax         time.Duration
}

var DefaultTuning = Tuning{
	MinSize:   5,
	MaxSize:   20,
	MinPoints: 4,
	MaxPoints: 11,

	StepDelayMin:       5 * time.Millisecond,
	StepDelayMax:       120 * time.Millisecond,
	SpeedFactorMin:     0.7,
	SpeedFactorMax:     1.3,
	LongDistance:       10,
	LongDistanceFactor: 1.2,

	PauseProbability:  0.12,
	PauseMin:          150 * time.Millisecond,
	PauseMax:          400 * time.Millisecond,
	DetourProbability: 0.35,
	DetourMinDistance: 8,
	DetourPosition:    0.4,
	DetourJitter:      1.5,
	DetourSpeedMin:    0.6,
	DetourSpeedMax:    1.4,
	ReturnMin:         10 * time.Millisecond,
	ReturnMax:         50 * time.Millisecond,
}

type Generator struct {
	rnd *rand.Rand
	t   Tuning
}

func NewGenerator(rnd *rand.Rand, t Tuning) *Generator {
	if t.MinPoints < 4 {
		t.MinPoints = 4
	}
	if t.MaxPoints < t.MinPoints {
		t.MaxPoints = t.MinPoints
	}
	return &Generator{rnd: rnd, t: t}
}

// Random picks a shape, a size and a point count, and returns the outline.
func (g *Generator) Random() (Shape, []Point) {
	shape := Shape(g.rnd.Intn(int(shapeCount)))
	size := g.t.MinSize + g.rnd.Float64()*(g.t.MaxSize-g.t.MinSize)
	n := g.t.MinPoints + g.rnd.Intn(g.t.MaxPoints-g.t.MinPoints+1)
	return shape, g.Outline(shape, n, size)
}

// Outline returns n-ish points tracing shape at the given size.
func (g *Generator) Outline(shape Shape, n int, size float64) []Point {
	switch shape {
	case Circle:
		return circle(n, size)
	case Square:
		return square(n, size)
	case ZigZag:
		return zigzag(n, size)
	default:
		return g.walk(n, size)
	}
}

func circle(n int, size float64) []Point {
	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts = append(pts, Point{X: size * math.Cos(a), Y: size * math.Sin(a)})
	}
	return pts
}

func square(n int, size float64) []Point {
	side := int(math.Sqrt(float64(n)))
	if side < 2 {
		side = 2
	}
	step := size / float64(side-1)
	pts := make([]Point, 0, side*4)
	for i := 0; i < side; i++ {
		pts = append(pts, Point{X: step * float64(i)})
	}
	for i := 1; i < side; i++ {
		pts = append(pts, Point{X: size, Y: step * float64(i)})
	}
	for i := side - 2; i >= 0; i-- {
		pts = append(pts, Point{X: step * float64(i), Y: size})
	}
	for i := side - 2; i > 0; i-- {
		pts = append(pts, Point{Y: step * float64(i)})
	}
	return pts
}

func zigzag(n int, size float64) []Point {
	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		y := size / 2
		if i%2 == 0 {
			y = -y
		}
		pts = append(pts, Point{X: size * float64(i) / float64(n-1), Y: y})
	}
	return pts
}

func (g *Generator) walk(n int, size float64) []Point {
	pts := make([]Point, 0, n)
	pts = append(pts, Point{})
	var x, y float64
	step := size / 3
	for i := 1; i < n; i++ {
		a := g.rnd.Float64() * 2 * math.Pi
		x += step * math.Cos(a)
		y += step * math.Sin(a)
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts
}

// Steps converts an outline into relative moves. Occasional pauses and
// detours are inserted, and a final step returns the pointer to where it
// started, so the deltas always sum to zero.
func (g *Generator) Steps(pts []Point) []Step {
	if len(pts) == 0 {
		return nil
	}

	var steps []Step
	var cx, cy int
	moveTo := func(p Point, wait time.Duration) {
		tx, ty := int(math.Round(p.X)), int(math.Round(p.Y))
		steps = append(steps, Step{DX: tx - cx, DY: ty - cy, Wait: wait})
		cx, cy = tx, ty
	}

	for i, p := range pts {
		dist := distanceToNext(pts, i)
		wait := g.stepDelay(dist)
		if g.rnd.Float64() < g.t.PauseProbability {
			wait += g.between(g.t.PauseMin, g.t.PauseMax)
		}
		moveTo(p, wait)

		if i < len(pts)-1 && dist > g.t.DetourMinDistance && g.rnd.Float64() < g.t.DetourProbability {
			next := pts[i+1]
			mid := Point{
				X: p.X + (next.X-p.X)*g.t.DetourPosition + (g.rnd.Float64()-0.5)*g.t.DetourJitter,
				Y: p.Y + (next.Y-p.Y)*g.t.DetourPosition + (g.rnd.Float64()-0.5)*g.t.DetourJitter,
			}
			speed := g.t.DetourSpeedMin + g.rnd.Float64()*(g.t.DetourSpeedMax-g.t.DetourSpeedMin)
			moveTo(mid, time.Duration(float64(wait)*speed))
		}
	}

	moveTo(Point{}, g.between(g.t.ReturnMin, g.t.ReturnMax))
	return steps
}

func (g *Generator) stepDelay(dist float64) time.Duration {
	base := g.between(g.t.StepDelayMin, g.t.StepDelayMax)
	speed := g.t.SpeedFactorMin + g.rnd.Float64()*(g.t.SpeedFactorMax-g.t.SpeedFactorMin)
	if dist > g.t.LongDistance {
		speed *= g.t.LongDistanceFactor
	}
	return time.Duration(float64(base) * speed)
}

func (g *Generator) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(g.rnd.Float64()*float64(hi-lo))
}

// distanceToNext is the length of the segment from pts[i] to the next point,
// or back to the origin for the last one.
func distanceToNext(pts []Point, i int) float64 {
	if i < 0 || i >= len(pts) {
		return 0
	}
	p := pts[i]
	if i < len(pts)-1 {
		return math.Hypot(pts[i+1].X-p.X, pts[i+1].Y-p.Y)
	}
	return math.Hypot(p.X, p.Y)
}
