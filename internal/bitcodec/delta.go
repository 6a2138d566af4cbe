package bitcodec

import "math"

// DeltaRange identifies one of the four Vec3-24 delta magnitude buckets.
type DeltaRange uint8

const (
	DeltaRange0 DeltaRange = iota // magnitude < 0.5,  resolution 1/255
	DeltaRange1                   // magnitude < 1.5,  resolution 1/127
	DeltaRange2                   // magnitude < 3.5,  resolution 1/63
	DeltaRange3                   // saturated, code clamped at 127 (127/31 ~ 4.1), resolution 1/31
)

// deltaScale is 1/resolution for each range: magnitude code = round(|d| * scale).
var deltaScale = [4]float32{255, 127, 63, 31}

// deltaBound is the exclusive magnitude bound used to pick a range.
var deltaBound = [3]float32{0.5, 1.5, 3.5}

const deltaMagMax = 0x7f // 7 magnitude bits
const deltaSignBit = 0x80

// SelectDeltaRange picks the smallest range whose bound covers |delta|,
// saturating to DeltaRange3 when the magnitude exceeds even that bucket.
func SelectDeltaRange(delta float32) DeltaRange {
	mag := float32(math.Abs(float64(delta)))
	for i, b := range deltaBound {
		if mag < b {
			return DeltaRange(i)
		}
	}
	return DeltaRange3
}

// EncodeDeltaAxis quantises curr-prev under the given range, returning the
// wire byte (sign bit + 7-bit magnitude) and the feedback-updated prev that
// both sides must converge on (prev + the decoded delta).
func EncodeDeltaAxis(prev, curr float32, r DeltaRange) (b byte, newPrev float32) {
	delta := curr - prev
	sign := byte(0)
	mag := delta
	if mag < 0 {
		sign = deltaSignBit
		mag = -mag
	}
	scale := deltaScale[r]
	magCode := int(math.Round(float64(mag) * float64(scale)))
	if magCode > deltaMagMax {
		magCode = deltaMagMax
	}
	b = sign | byte(magCode)
	return b, decodeDeltaAxis(prev, r, b)
}

// DecodeDeltaAxis applies a previously encoded delta byte to prev,
// reproducing the same feedback-updated value as the encoder.
func DecodeDeltaAxis(prev float32, r DeltaRange, b byte) float32 {
	return decodeDeltaAxis(prev, r, b)
}

func decodeDeltaAxis(prev float32, r DeltaRange, b byte) float32 {
	scale := deltaScale[r]
	magCode := b &^ deltaSignBit
	mag := float32(magCode) / scale
	if b&deltaSignBit != 0 {
		mag = -mag
	}
	return prev + mag
}
