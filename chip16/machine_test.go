package chip16

import (
	"errors"
	"hash/crc32"
	"testing"
)

func TestMachineLoadROMSeedsPC(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x00}
	rom := buildROM(payload, 0x0100, crc32.ChecksumIEEE(payload))

	m := NewMachine(nil)
	if err := m.LoadROM(rom); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	if m.CPU.PC != 0x0100 {
		t.Errorf("PC = %04X, want 0100", m.CPU.PC)
	}
}

func TestMachineStepRecoversFatalError(t *testing.T) {
	m := NewMachine(nil)
	loadWords(m.Mem, 0, [4]byte{0xFF, 0x00, 0x00, 0x00})

	err := m.Step()
	var ferr *FatalError
	if err == nil {
		t.Fatal("expected a fatal error")
	}
	if !errors.As(err, &ferr) {
		t.Fatalf("err = %v, want *FatalError", err)
	}
	if ferr.Opcode != 0xFF {
		t.Errorf("Opcode = %02X, want FF", ferr.Opcode)
	}
}

func TestMachinePausedSkipsStepping(t *testing.T) {
	m := NewMachine(nil)
	m.Paused = true
	loadWords(m.Mem, 0, [4]byte{0xFF, 0x00, 0x00, 0x00}) // would be fatal if executed

	if err := m.stepFrame(); err != nil {
		t.Fatalf("stepFrame while paused returned %v, want nil", err)
	}
	if m.CPU.PC != 0 {
		t.Errorf("PC = %04X, want 0000 (no instruction should have executed)", m.CPU.PC)
	}
}
