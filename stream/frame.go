package stream

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/lixenwraith/particles/core"
	"github.com/lixenwraith/particles/engine"
	"github.com/lixenwraith/particles/render"
)

// Frame layout, little-endian:
//
//	magic u32 | step u64 | count u32 | renderScale i32 | count × (x i32, y i32, speed u8)
//
// speed is the colour ramp scale quantized to 0..255
const (
	FrameMagic      uint32 = 0x50415254 // "PART"
	FrameHeaderSize        = 4 + 8 + 4 + 4
	FrameRecordSize        = 4 + 4 + 1
)

// ErrBadFrame is returned when a frame is truncated or carries the wrong magic
var ErrBadFrame = errors.New("malformed frame")

// Frame is a decoded snapshot
type Frame struct {
	Step        uint64
	RenderScale int32
	Positions   []core.Vec2
	Speeds      []uint8
}

// EncodeFrame appends the encoded snapshot to dst
func EncodeFrame(dst []byte, v engine.View, ps []core.Particle) []byte {
	ramp := render.NewSpeedRamp(v)

	dst = binary.LittleEndian.AppendUint32(dst, FrameMagic)
	dst = binary.LittleEndian.AppendUint64(dst, v.Step)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(ps)))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(v.RenderScale))
	for _, p := range ps {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(p.Position.X))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(p.Position.Y))
		dst = append(dst, uint8(ramp.Scale(p)*255+0.5))
	}
	return dst
}

// DecodeFrame parses a frame produced by EncodeFrame
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < FrameHeaderSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(b))
	}
	if m := binary.LittleEndian.Uint32(b); m != FrameMagic {
		return Frame{}, fmt.Errorf("%w: magic %#x", ErrBadFrame, m)
	}
	f := Frame{
		Step:        binary.LittleEndian.Uint64(b[4:]),
		RenderScale: int32(binary.LittleEndian.Uint32(b[16:])),
	}
	n := int(binary.LittleEndian.Uint32(b[12:]))
	body := b[FrameHeaderSize:]
	if len(body) != n*FrameRecordSize {
		return Frame{}, fmt.Errorf("%w: %d particles need %d bytes, have %d", ErrBadFrame, n, n*FrameRecordSize, len(body))
	}

	f.Positions = make([]core.Vec2, n)
	f.Speeds = make([]uint8, n)
	for i := range n {
		r := body[i*FrameRecordSize:]
		f.Positions[i] = core.Vec2{
			X: int32(binary.LittleEndian.Uint32(r)),
			Y: int32(binary.LittleEndian.Uint32(r[4:])),
		}
		f.Speeds[i] = r[8]
	}
	return f, nil
}
