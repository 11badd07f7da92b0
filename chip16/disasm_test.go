package chip16

import (
	"strings"
	"testing"
)

func TestDisassembleKnownOpcodes(t *testing.T) {
	var mem Memory
	loadWords(&mem, 0,
		[4]byte{0x20, 0x01, 0x00, 0xFF}, // LDI R1, 0xFF00
		[4]byte{0x41, 0x10, 0x00, 0x00}, // ADD R0, R1
	)

	if got := Disassemble(&mem, 0); !strings.Contains(got, "LDI") || !strings.Contains(got, "R1") {
		t.Errorf("Disassemble(0) = %q, want it to mention LDI and R1", got)
	}
	if got := Disassemble(&mem, 4); !strings.Contains(got, "ADD") {
		t.Errorf("Disassemble(4) = %q, want it to mention ADD", got)
	}
}

func TestDisassembleIllegalOpcode(t *testing.T) {
	var mem Memory
	mem.WriteByte(0, 0xFF)

	if got := Disassemble(&mem, 0); !strings.Contains(got, "??") {
		t.Errorf("Disassemble of an unknown byte = %q, want a ?? marker", got)
	}
}

func TestDisassembleIgnorableOpcode(t *testing.T) {
	var mem Memory
	mem.WriteByte(0, 0x08)

	if got := Disassemble(&mem, 0); !strings.Contains(got, "ignored") {
		t.Errorf("Disassemble of an ignorable opcode = %q, want it marked ignored", got)
	}
}
