package chip16

import "testing"

func TestDecodeFields(t *testing.T) {
	inst := decode([4]byte{0x42, 0x21, 0x34, 0x12})

	if inst.op != opADD3 {
		t.Errorf("op = %#x, want opADD3", inst.op)
	}
	if inst.x != 1 || inst.y != 2 {
		t.Errorf("x,y = %d,%d, want 1,2", inst.x, inst.y)
	}
	if inst.z != 4 {
		t.Errorf("z = %d, want 4", inst.z)
	}
	if got := inst.hhll(); got != 0x1234 {
		t.Errorf("hhll = %04X, want 1234", got)
	}
}

func TestIsIgnorableOpcodeRanges(t *testing.T) {
	for _, b := range []byte{0x08, 0x0A, 0x0D, 0xD0, 0xD1} {
		if !isIgnorableOpcode(b) {
			t.Errorf("isIgnorableOpcode(%02X) = false, want true", b)
		}
	}
	for _, b := range []byte{0x00, 0x0E, 0xCF, 0xD2, 0xFF} {
		if isIgnorableOpcode(b) {
			t.Errorf("isIgnorableOpcode(%02X) = true, want false", b)
		}
	}
}
