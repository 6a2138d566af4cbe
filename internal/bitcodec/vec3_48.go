package bitcodec

import "github.com/otley/rbnet/mathx"

// EncodeVec3_48 packs three fixed16 scalars (6 bytes total), little-endian
// per component.
func EncodeVec3_48(v mathx.Vec3) [6]byte {
	var out [6]byte
	putU16(out[0:2], EncodeFixed16(v.X))
	putU16(out[2:4], EncodeFixed16(v.Y))
	putU16(out[4:6], EncodeFixed16(v.Z))
	return out
}

// DecodeVec3_48 reads back a Vec3-48 encoded by EncodeVec3_48.
func DecodeVec3_48(b []byte) mathx.Vec3 {
	return mathx.Vec3{
		X: DecodeFixed16(getU16(b[0:2])),
		Y: DecodeFixed16(getU16(b[2:4])),
		Z: DecodeFixed16(getU16(b[4:6])),
	}
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func getU16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
