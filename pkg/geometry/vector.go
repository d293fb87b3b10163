package geometry

import "math"

// Vector2D is a point or displacement on the drawing plane, in millimetres.
// All operations return a new value.
type Vector2D struct {
	X float64 `koanf:"x" yaml:"x" json:"x"`
	Y float64 `koanf:"y" yaml:"y" json:"y"`
}

const normalizeEpsilon = 0.000001

func (v Vector2D) Add(o Vector2D) Vector2D {
	return Vector2D{v.X + o.X, v.Y + o.Y}
}

func (v Vector2D) Sub(o Vector2D) Vector2D {
	return Vector2D{v.X - o.X, v.Y - o.Y}
}

func (v Vector2D) Scale(s float64) Vector2D {
	return Vector2D{v.X * s, v.Y * s}
}

func (v Vector2D) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vector2D) Distance(o Vector2D) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Normalize returns the unit vector in the direction of v, or the zero vector
// if v is too short to have a meaningful direction.
func (v Vector2D) Normalize() Vector2D {
	l := v.Length()
	if math.Abs(l) < normalizeEpsilon {
		return Vector2D{}
	}
	return Vector2D{v.X / l, v.Y / l}
}

func (v Vector2D) Floor() Vector2D {
	return Vector2D{math.Floor(v.X), math.Floor(v.Y)}
}

// Clamp limits each component independently to [lo, hi].
func (v Vector2D) Clamp(lo, hi Vector2D) Vector2D {
	return Vector2D{
		X: Clamp(v.X, lo.X, hi.X),
		Y: Clamp(v.Y, lo.Y, hi.Y),
	}
}

// Interpolate returns begin at a=0 and end at a=1.
func Interpolate(begin, end Vector2D, a float64) Vector2D {
	return begin.Scale(1 - a).Add(end.Scale(a))
}
