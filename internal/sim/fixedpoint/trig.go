package fixedpoint

// Angle is a fixed-point angle measured in "turns" scaled to 65536 units per
// full circle (0..65535 represents 0..2π). Using a fixed integer domain for
// angles, rather than radians-as-Fixed, keeps the quarter-table lookup exact
// and avoids accumulating float error when angles wrap.
type Angle uint32

const (
	TurnUnits    = 65536
	QuarterTurn  = TurnUnits / 4
	tableEntries = QuarterTurn + 1
)

// sinQuarterTable holds sin(angle) for angle in [0, QuarterTurn] scaled to
// Fixed, precomputed once at init so every platform shares identical bits.
var sinQuarterTable [tableEntries]Fixed

func init() {
	// Evaluating the table in float64 would reintroduce platform variance,
	// so each entry is a Bhaskara approximation evaluated with pure integer
	// arithmetic, which is fully deterministic (no transcendental float
	// calls at runtime or init).
	for i := 0; i < tableEntries; i++ {
		// angle in degrees*1000 scaled space: map i in [0, QuarterTurn] -> [0,90] degrees
		degTimes1000 := int64(i) * 90000 / int64(QuarterTurn)
		sinQuarterTable[i] = bhaskaraSin(degTimes1000)
	}
}

// bhaskaraSin approximates sin(degrees/1000 °) using Bhaskara I's formula,
// computed entirely with integer arithmetic so the result is reproducible
// bit-for-bit on any platform. Input is degrees*1000, range [0,180000].
func bhaskaraSin(degTimes1000 int64) Fixed {
	d := degTimes1000
	if d > 180000 {
		d = 180000
	}
	if d < 0 {
		d = 0
	}
	// Bhaskara: sin(x°) ≈ 4*x*(180-x) / (40500 - x*(180-x)), x in degrees
	x := d / 1000
	num := 4 * x * (180 - x)
	den := 40500 - x*(180-x)
	if den == 0 {
		den = 1
	}
	// Scale to Fixed (result is in [0,1])
	return Fixed((num << fracBits) / den)
}

// normalize wraps a raw angle unit into [0, TurnUnits).
func normalize(units int64) uint32 {
	units %= TurnUnits
	if units < 0 {
		units += TurnUnits
	}
	return uint32(units)
}

// Sin returns sin(a) as a Fixed value using quarter-table reflection. The
// table has one entry per angle unit across a quarter turn (QuarterTurn+1
// entries) and is read by direct lookup, without interpolation. Entries are
// Bhaskara values at whole degrees, so accuracy is that of the Bhaskara
// approximation rather than the fixed-point epsilon.
func Sin(a Angle) Fixed {
	u := uint32(a) % TurnUnits
	quadrant := u / QuarterTurn
	offset := u % QuarterTurn

	switch quadrant {
	case 0:
		return lookupSin(offset)
	case 1:
		return lookupSin(QuarterTurn - offset)
	case 2:
		return -lookupSin(offset)
	default:
		return -lookupSin(QuarterTurn - offset)
	}
}

// Cos returns cos(a) as a Fixed value, derived from Sin via the quarter-turn
// phase shift so only one table is needed.
func Cos(a Angle) Fixed {
	return Sin(Angle(normalize(int64(a) + QuarterTurn)))
}

func lookupSin(offset uint32) Fixed {
	if offset >= QuarterTurn {
		return sinQuarterTable[QuarterTurn]
	}
	return sinQuarterTable[offset]
}

// AngleFromFixedRadians converts a Fixed radian value (as used by legacy
// float call sites during migration) into the table's Angle domain.
func AngleFromFixedRadians(radians Fixed) Angle {
	// radians in Fixed domain; 2π ≈ 411775 in Fixed (6.28318 * 65536)
	const twoPiFixed = Fixed(411775)
	scaled := int64(radians) * TurnUnits / int64(twoPiFixed)
	return Angle(normalize(scaled))
}
