package geometry

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the length under which a vector is treated as having no direction.
// Steering math works in float32 world units, so anything shorter than a thousandth
// of a unit is noise and must never be divided by.
const (
	Epsilon = 0.001
)

// ErrDivideByZero is returned by Div when the scalar is zero.
var ErrDivideByZero = errors.New("vector cannot be divided by zero")

// Vector2D represents a 2D vector or point in world space.
// Fields are public because they are plain data: v := Vector2D{X: 1, Y: 2}.
// float32 matches the flat position buffer handed to renderers.
type Vector2D struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Zero is the null vector, returned by every degenerate steering branch.
var Zero = Vector2D{}

// NewVector creates a new Vector2D.
func NewVector(x, y float32) Vector2D {
	return Vector2D{X: x, Y: y}
}

// NewVectorPolar creates a new Vector2D from polar coordinates, theta in radians.
func NewVectorPolar(radius, theta float32) Vector2D {
	x := radius * float32(math.Cos(float64(theta)))
	y := radius * float32(math.Sin(float64(theta)))

	// cos(Pi/2) is not exactly zero in floating point
	if abs(x) < 1e-6 {
		x = 0
	}
	if abs(y) < 1e-6 {
		y = 0
	}

	return Vector2D{X: x, Y: y}
}

// String implements the fmt.Stringer interface.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// ---------------------------------------------------------------------
// Arithmetic Operations
// Value receivers returning new values: a Vector2D is never mutated in place.
// ---------------------------------------------------------------------

// Add adds two vectors and returns the result.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts the other vector from the current vector.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{v.X - other.X, v.Y - other.Y}
}

// Mul scales the vector by a scalar value.
func (v Vector2D) Mul(scalar float32) Vector2D {
	return Vector2D{v.X * scalar, v.Y * scalar}
}

// Div scales the vector by 1/scalar.
// Dividing by zero returns an Inf vector together with ErrDivideByZero,
// so callers that already know scalar > 0 can ignore the error.
func (v Vector2D) Div(scalar float32) (Vector2D, error) {
	if scalar == 0 {
		inf := float32(math.Inf(1))
		return Vector2D{inf, inf}, ErrDivideByZero
	}
	return Vector2D{v.X / scalar, v.Y / scalar}, nil
}

// ---------------------------------------------------------------------
// Vector2D Products
// ---------------------------------------------------------------------

// Dot calculates the dot product of two vectors.
func (v Vector2D) Dot(other Vector2D) float32 {
	return v.X*other.X + v.Y*other.Y
}

// Cross calculates the 2D scalar cross product (z-component of the 3D cross product).
// Positive when other is counter-clockwise from v.
func (v Vector2D) Cross(other Vector2D) float32 {
	return v.X*other.Y - v.Y*other.X
}

// ---------------------------------------------------------------------
// Magnitude and Normalization
// ---------------------------------------------------------------------

// LenSqr calculates the squared magnitude of the vector.
// Cheaper than Len, use it for comparisons.
func (v Vector2D) LenSqr() float32 {
	return v.X*v.X + v.Y*v.Y
}

// Len calculates the magnitude (length) of the vector.
func (v Vector2D) Len() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// Normalize returns a unit vector in the same direction.
// It fails closed: a vector shorter than Epsilon normalizes to Zero, never to NaN or Inf.
func (v Vector2D) Normalize() Vector2D {
	l := v.Len()
	if l < Epsilon {
		return Zero
	}
	return v.Mul(1 / l)
}

// ClampLen returns v unchanged when its length is at most limit,
// otherwise v rescaled to exactly limit.
func (v Vector2D) ClampLen(limit float32) Vector2D {
	l := v.Len()
	if l <= limit {
		return v
	}
	return v.Mul(limit / l)
}

// IsZero reports whether v is shorter than Epsilon.
func (v Vector2D) IsZero() bool {
	return v.LenSqr() < Epsilon*Epsilon
}

// IsFinite reports whether both components are neither NaN nor Inf.
func (v Vector2D) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// ---------------------------------------------------------------------
// Geometric Utilities
// ---------------------------------------------------------------------

// DistanceTo calculates the Euclidean distance to another vector.
func (v Vector2D) DistanceTo(other Vector2D) float32 {
	return v.Sub(other).Len()
}

// DistanceSquaredTo calculates the squared Euclidean distance to another vector.
func (v Vector2D) DistanceSquaredTo(other Vector2D) float32 {
	return v.Sub(other).LenSqr()
}

// Angle returns the angle (in radians) of the vector relative to the X-axis.
// Range: [-Pi, Pi]
func (v Vector2D) Angle() float32 {
	return float32(math.Atan2(float64(v.Y), float64(v.X)))
}

// AngleTo returns the signed angle (in radians) that rotates v onto other.
// Range: [-Pi, Pi]. Callers wanting an unsigned separation take the absolute value.
// If either vector is zero the result is 0; callers that need a heading check IsZero first.
func (v Vector2D) AngleTo(other Vector2D) float32 {
	return float32(math.Atan2(float64(v.Cross(other)), float64(v.Dot(other))))
}

// Rotate rotates the vector by angle (in radians) around the origin (0,0).
func (v Vector2D) Rotate(angle float32) Vector2D {
	sinTheta, cosTheta := math.Sincos(float64(angle))
	c, s := float32(cosTheta), float32(sinTheta)
	return Vector2D{
		X: v.X*c - v.Y*s,
		Y: v.X*s + v.Y*c,
	}
}

// PerpRight returns v rotated a quarter turn to the right: (y, -x).
func (v Vector2D) PerpRight() Vector2D {
	return Vector2D{X: v.Y, Y: -v.X}
}

// PerpLeft returns v rotated a quarter turn to the left: (-y, x).
func (v Vector2D) PerpLeft() Vector2D {
	return Vector2D{X: -v.Y, Y: v.X}
}

// Wrap maps v onto the torus [0, width) × [0, height), each axis independently.
func (v Vector2D) Wrap(width, height float32) Vector2D {
	return Vector2D{X: wrap(v.X, width), Y: wrap(v.Y, height)}
}

func wrap(f, limit float32) float32 {
	if f >= 0 && f < limit {
		return f
	}
	f = float32(math.Mod(float64(f), float64(limit)))
	if f < 0 {
		f += limit
	}
	// -1e-9 + limit rounds to limit in float32
	if f >= limit {
		f = 0
	}
	return f
}

// ---------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------

// Eq checks if two vectors are approximately equal, component-wise within tolerance.
func (v Vector2D) Eq(other Vector2D, tolerance float32) bool {
	return abs(v.X-other.X) <= tolerance && abs(v.Y-other.Y) <= tolerance
}

func abs(f float32) float32 {
	return float32(math.Abs(float64(f)))
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
