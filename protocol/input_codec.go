package protocol

import "github.com/otley/rbnet/internal/wire"

const (
	inputBitJump = 1 << iota
	inputBitForward
	inputBitBack
	inputBitLeft
	inputBitRight
)

// EncodeInput writes the §6.2 client-to-server payload: one bit-packed
// byte for jump/movement, then the 2D aim direction as two f32s.
func EncodeInput(w *wire.Writer, in Input) {
	var bits uint8
	if in.Jump {
		bits |= inputBitJump
	}
	if in.Forward {
		bits |= inputBitForward
	}
	if in.Back {
		bits |= inputBitBack
	}
	if in.Left {
		bits |= inputBitLeft
	}
	if in.Right {
		bits |= inputBitRight
	}
	w.U8(bits)
	w.F32(in.AimX)
	w.F32(in.AimZ)
}

// DecodeInput is EncodeInput's inverse. r's sticky failure flag (see
// internal/wire.Reader) is the caller's signal of a truncated payload;
// DecodeInput itself never panics on short input.
func DecodeInput(r *wire.Reader) Input {
	bits := r.U8()
	return Input{
		Jump:    bits&inputBitJump != 0,
		Forward: bits&inputBitForward != 0,
		Back:    bits&inputBitBack != 0,
		Left:    bits&inputBitLeft != 0,
		Right:   bits&inputBitRight != 0,
		AimX:    r.F32(),
		AimZ:    r.F32(),
	}
}
