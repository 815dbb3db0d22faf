package fixedpoint

// Vec2 is a two-component fixed-point vector. Normalized world space is
// [0,1]²; physics space uses the configurable bounds in physics.Config. The
// coordinate mapping between the two is the only scaling permitted between
// them (spec §3).
type Vec2 struct {
	X, Y Fixed
}

// Vec3 is a three-component fixed-point vector, used for physics bodies.
type Vec3 struct {
	X, Y, Z Fixed
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s Fixed) Vec2 {
	return Vec2{v.X.Mul(s), v.Y.Mul(s)}
}

// LengthSq returns the squared magnitude, avoiding a Sqrt call.
func (v Vec2) LengthSq() Fixed {
	return v.X.Mul(v.X) + v.Y.Mul(v.Y)
}

// Length returns the magnitude via the fixed-point Newton sqrt.
func (v Vec2) Length() Fixed {
	return v.LengthSq().Sqrt()
}

// Normalized returns a unit-length vector in the same direction, or the
// zero vector if v is the zero vector (never panics, per the kernel's
// never-crash hot-path contract).
func (v Vec2) Normalized() Vec2 {
	length := v.Length()
	if length == 0 {
		return Vec2{}
	}
	return Vec2{v.X.Div(length), v.Y.Div(length)}
}

func (v Vec2) Dot(o Vec2) Fixed {
	return v.X.Mul(o.X) + v.Y.Mul(o.Y)
}

func (v Vec2) DistanceTo(o Vec2) Fixed {
	return v.Sub(o).Length()
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s Fixed) Vec3 {
	return Vec3{v.X.Mul(s), v.Y.Mul(s), v.Z.Mul(s)}
}

func (v Vec3) LengthSq() Fixed {
	return v.X.Mul(v.X) + v.Y.Mul(v.Y) + v.Z.Mul(v.Z)
}

func (v Vec3) Length() Fixed {
	return v.LengthSq().Sqrt()
}

func (v Vec3) Normalized() Vec3 {
	length := v.Length()
	if length == 0 {
		return Vec3{}
	}
	inv := One.Div(length)
	return Vec3{v.X.Mul(inv), v.Y.Mul(inv), v.Z.Mul(inv)}
}

func (v Vec3) Dot(o Vec3) Fixed {
	return v.X.Mul(o.X) + v.Y.Mul(o.Y) + v.Z.Mul(o.Z)
}

func (v Vec3) To2D() Vec2 {
	return Vec2{v.X, v.Y}
}

func Vec3From2D(v Vec2, z Fixed) Vec3 {
	return Vec3{v.X, v.Y, z}
}
