package chip16

// ScreenWidth and ScreenHeight are the fixed Chip16 framebuffer dimensions.
const (
	ScreenWidth  = 320
	ScreenHeight = 240
)

// framePresenter is the narrow slice of the full Presenter contract
// (machine.go) that Video itself depends on. The harness calls Present
// only when the framebuffer is dirty, once per frame, never from inside
// instruction execution.
type framePresenter interface {
	Present(fb *[ScreenHeight][ScreenWidth]uint8, bg uint8) error
}

// Video is the indexed-color framebuffer and sprite blitter. It is the
// shared collaborator CPU instructions CLS/BGC/SPR/DRW mutate and that the
// harness hands to a Presenter at frame boundaries.
type Video struct {
	buf [ScreenHeight][ScreenWidth]uint8

	spritew int // sprite width, in bytes (2 pixels per byte)
	spriteh int // sprite height, in rows

	bg uint8

	vblank bool
	dirty  bool
}

// CLS fills the buffer with the background index and marks it dirty.
func (v *Video) CLS() {
	for row := range v.buf {
		for col := range v.buf[row] {
			v.buf[row][col] = v.bg
		}
	}
	v.dirty = true
}

// BGC sets the background index to the low nibble of n. It does not
// recolor existing pixels; it only affects subsequent CLS calls and the
// area a Presenter draws outside of sprite content.
func (v *Video) BGC(n byte) {
	v.bg = n & 0x0F
}

// SPR stores sprite geometry for the next DRW. w is the sprite width in
// pixels (one byte packs two pixels); h is the height in rows.
func (v *Video) SPR(w, h byte) {
	v.spritew = int(w) / 2
	v.spriteh = int(h)
}

// DRW blits the sprite at mem[src:] to screen position (x, y), both signed
// 16-bit. A source nibble of 0 is transparent and leaves the destination
// pixel untouched. Destination pixels outside [0,320)x[0,240) are clipped,
// never wrapped; the blitter does not trust guest-supplied geometry.
func (v *Video) DRW(x, y int16, src uint16, mem *Memory) {
	rowBytes := mem.Slice(src, v.spriteh*v.spritew)

	for row := 0; row < v.spriteh; row++ {
		dstY := int(y) + row
		if dstY < 0 || dstY >= ScreenHeight {
			continue
		}

		for colByte := 0; colByte < v.spritew; colByte++ {
			b := rowBytes[row*v.spritew+colByte]

			hi := b >> 4
			lo := b & 0x0F

			dstXHi := int(x) + colByte*2
			dstXLo := dstXHi + 1

			if dstXHi >= 0 && dstXHi < ScreenWidth && hi != 0 {
				v.buf[dstY][dstXHi] = hi
			}
			if dstXLo >= 0 && dstXLo < ScreenWidth && lo != 0 {
				v.buf[dstY][dstXLo] = lo
			}
		}
	}
	v.dirty = true
}

// Vblank reports whether the frame clock has asserted vblank since the last
// time the CPU's VBLNK instruction released it.
func (v *Video) Vblank() bool {
	return v.vblank
}

// ReleaseVblank clears the vblank flag; called by the CPU's VBLNK
// instruction when it observes vblank asserted.
func (v *Video) ReleaseVblank() {
	v.vblank = false
}

// EndFrame publishes the buffer to p when dirty, then asserts vblank. This
// is the single point at which CPU writes to the framebuffer become visible
// externally — a frame is the atomic unit visible outside the emulator.
func (v *Video) EndFrame(p framePresenter) error {
	if v.dirty && p != nil {
		if err := p.Present(&v.buf, v.bg); err != nil {
			return err
		}
		v.dirty = false
	}
	v.vblank = true
	return nil
}

// Pixel returns the index at (x, y) for tests and diagnostics.
func (v *Video) Pixel(x, y int) uint8 {
	return v.buf[y][x]
}

// Background returns the current background index.
func (v *Video) Background() uint8 {
	return v.bg
}
