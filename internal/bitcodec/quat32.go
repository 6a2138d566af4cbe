package bitcodec

import (
	"math"

	"github.com/otley/rbnet/mathx"
)

// quatMagBits is the number of magnitude bits per kept component.
const quatMagBits = 9
const quatMagMax = (1 << quatMagBits) - 1 // 511

// quatScale maps the [-1/sqrt2, 1/sqrt2] bound of a non-largest component
// onto the 9-bit magnitude code: (2^9-1)*sqrt2.
var quatScale = float32(quatMagMax) * float32(math.Sqrt2)

// EncodeQuat32 implements the smallest-three quaternion codec: the two
// high bits identify which of (x,y,z,w) has the largest magnitude (and is
// dropped); the remaining three are sign+9-bit-magnitude, scaled so each
// fits since a non-largest component is bounded by 1/sqrt(2).
func EncodeQuat32(q mathx.Quat) uint32 {
	c := [4]float32{q.X, q.Y, q.Z, q.W}
	idx := 0
	maxAbs := float32(math.Abs(float64(c[0])))
	for i := 1; i < 4; i++ {
		a := float32(math.Abs(float64(c[i])))
		if a > maxAbs {
			maxAbs = a
			idx = i
		}
	}
	if c[idx] < 0 {
		// q and -q represent the same rotation; negate so the dropped
		// component (whose sign we don't transmit) is reconstructed positive.
		c[0], c[1], c[2], c[3] = -c[0], -c[1], -c[2], -c[3]
	}

	var bits uint32 = uint32(idx) << 30
	shift := 20
	for i := 0; i < 4; i++ {
		if i == idx {
			continue
		}
		sign := uint32(0)
		v := c[i]
		if v < 0 {
			sign = 1
			v = -v
		}
		mag := uint32(math.Round(float64(v) * float64(quatScale)))
		if mag > quatMagMax {
			mag = quatMagMax
		}
		bits |= (sign<<quatMagBits | mag) << uint(shift)
		shift -= 10
	}
	return bits
}

// DecodeQuat32 is the inverse of EncodeQuat32. The dropped component is
// reconstructed as +sqrt(1 - sum(others^2)), clamped at 0 for numerical
// safety against accumulated quantisation error.
func DecodeQuat32(bits uint32) mathx.Quat {
	idx := int(bits >> 30)
	var c [4]float32
	sumSq := float32(0)
	shift := 20
	for i := 0; i < 4; i++ {
		if i == idx {
			continue
		}
		field := (bits >> uint(shift)) & 0x3ff
		shift -= 10
		sign := field >> quatMagBits
		mag := field & quatMagMax
		v := float32(mag) / quatScale
		if sign != 0 {
			v = -v
		}
		c[i] = v
		sumSq += v * v
	}
	rem := float32(1) - sumSq
	if rem < 0 {
		rem = 0
	}
	c[idx] = float32(math.Sqrt(float64(rem)))
	return mathx.Quat{X: c[0], Y: c[1], Z: c[2], W: c[3]}
}
