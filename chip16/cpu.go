/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

package chip16

import "math/rand"

// initialSP is the stack pointer's reset value.
const initialSP uint16 = 0xFDF0

// CPU is the Chip16 register file and fetch-decode-execute engine. A CPU
// never returns an error from Step; failures panic with one of the typed
// errors in errors.go, matching the distilled spec's "never returns a
// result value" contract — Chip16 has no guest-visible fault vector.
type CPU struct {
	PC uint16
	SP uint16
	R  [16]int16
	F  Flags

	rng    *rand.Rand
	log    Logger
	warned map[byte]bool
}

// NewCPU creates a CPU in its reset state. rng supplies RND; a nil rng uses
// the package-level default source. log receives ignorable-opcode
// diagnostics; a nil log discards them.
func NewCPU(rng *rand.Rand, log Logger) *CPU {
	if log == nil {
		log = nopLogger{}
	}
	c := &CPU{log: log, rng: rng, warned: make(map[byte]bool)}
	c.Reset()
	return c
}

// Reset restores PC, SP, registers, and flags to their power-on values.
func (c *CPU) Reset() {
	c.PC = 0
	c.SP = initialSP
	c.R = [16]int16{}
	c.F = 0
}

// SetPC overrides the program counter, used after a ROM load to seed the
// header's initial PC.
func (c *CPU) SetPC(v uint16) {
	c.PC = v
}

func (c *CPU) randIntn(n int) int {
	if c.rng != nil {
		return c.rng.Intn(n)
	}
	return rand.Intn(n)
}

// Step fetches, decodes, and executes exactly one instruction, mutating PC,
// SP, registers, flags, mem, and fb as the opcode dictates.
func (c *CPU) Step(mem *Memory, fb *Video) {
	word := [4]byte{
		mem.ReadByte(c.PC),
		mem.ReadByte(c.PC + 1),
		mem.ReadByte(c.PC + 2),
		mem.ReadByte(c.PC + 3),
	}
	inst := decode(word)

	switch inst.op {
	case opNOP:
		c.advance()
	case opCLS:
		fb.CLS()
		c.advance()
	case opVBLNK:
		c.vblnk(fb)
	case opBGC:
		fb.BGC(inst.z)
		c.advance()
	case opSPR:
		fb.SPR(inst.ll, inst.hh)
		c.advance()
	case opDRWI:
		fb.DRW(c.R[inst.x], c.R[inst.y], inst.hhll(), mem)
		c.advance()
	case opDRWR:
		fb.DRW(c.R[inst.x], c.R[inst.y], uint16(c.R[inst.z]), mem)
		c.advance()
	case opRND:
		c.rnd(inst.x, inst.hhll())
		c.advance()

	case opJMP:
		c.PC = inst.hhll()
	case opJCC:
		c.jcc(inst)
	case opJME:
		if c.R[inst.x] == c.R[inst.y] {
			c.PC = inst.hhll()
		} else {
			c.advance()
		}
	case opCALL:
		c.call(mem, inst.hhll())
	case opRET:
		c.ret(mem)
	case opCALLR:
		c.call(mem, uint16(c.R[inst.x]))

	case opLDI:
		c.R[inst.x] = int16(inst.hhll())
		c.advance()
	case opLDMI:
		c.R[inst.x] = int16(mem.ReadWord(inst.hhll()))
		c.advance()
	case opLDMR:
		c.R[inst.x] = int16(mem.ReadWord(uint16(c.R[inst.y])))
		c.advance()
	case opMOV:
		c.R[inst.x] = c.R[inst.y]
		c.advance()

	case opSTMI:
		mem.WriteWord(inst.hhll(), uint16(c.R[inst.x]))
		c.advance()
	case opSTMR:
		mem.WriteWord(uint16(c.R[inst.y]), uint16(c.R[inst.x]))
		c.advance()

	case opADDI:
		c.R[inst.x] = c.add(c.R[inst.x], int16(inst.hhll()))
		c.advance()
	case opADD:
		c.R[inst.x] = c.add(c.R[inst.x], c.R[inst.y])
		c.advance()
	case opADD3:
		c.R[inst.z] = c.add(c.R[inst.x], c.R[inst.y])
		c.advance()

	case opSUBI:
		c.R[inst.x] = c.sub(c.R[inst.x], int16(inst.hhll()))
		c.advance()
	case opSUB:
		c.R[inst.x] = c.sub(c.R[inst.x], c.R[inst.y])
		c.advance()
	case opSUB3:
		c.R[inst.z] = c.sub(c.R[inst.x], c.R[inst.y])
		c.advance()
	case opCMPI:
		c.sub(c.R[inst.x], int16(inst.hhll()))
		c.advance()
	case opCMP:
		c.sub(c.R[inst.x], c.R[inst.y])
		c.advance()

	case opANDI:
		c.R[inst.x] = c.bitwise(c.R[inst.x] & int16(inst.hhll()))
		c.advance()
	case opAND:
		c.R[inst.x] = c.bitwise(c.R[inst.x] & c.R[inst.y])
		c.advance()
	case opTSTI:
		c.bitwise(c.R[inst.x] & int16(inst.hhll()))
		c.advance()
	case opTST:
		c.bitwise(c.R[inst.x] & c.R[inst.y])
		c.advance()

	case opOR:
		c.R[inst.x] = c.bitwise(c.R[inst.x] | c.R[inst.y])
		c.advance()
	case opOR3:
		c.R[inst.z] = c.bitwise(c.R[inst.x] | c.R[inst.y])
		c.advance()

	case opXOR:
		c.R[inst.x] = c.bitwise(c.R[inst.x] ^ c.R[inst.y])
		c.advance()
	case opXOR3:
		c.R[inst.z] = c.bitwise(c.R[inst.x] ^ c.R[inst.y])
		c.advance()

	case opMULI:
		c.R[inst.x] = c.mul(c.R[inst.x], int16(inst.hhll()))
		c.advance()
	case opMUL:
		c.R[inst.x] = c.mul(c.R[inst.x], c.R[inst.y])
		c.advance()
	case opMUL3:
		c.R[inst.z] = c.mul(c.R[inst.x], c.R[inst.y])
		c.advance()

	case opDIVI:
		c.R[inst.x] = c.div(c.R[inst.x], int16(inst.hhll()))
		c.advance()
	case opDIV:
		c.R[inst.x] = c.div(c.R[inst.x], c.R[inst.y])
		c.advance()

	case opSHL:
		c.R[inst.x] = c.shl(c.R[inst.x], int(inst.z))
		c.advance()
	case opSHR:
		c.R[inst.x] = c.shr(c.R[inst.x], int(inst.z))
		c.advance()
	case opSAR:
		c.R[inst.x] = c.sar(c.R[inst.x], int(inst.z))
		c.advance()
	case opSHLR:
		c.R[inst.x] = c.shl(c.R[inst.x], int(uint16(c.R[inst.y])))
		c.advance()

	case opPUSH:
		mem.WriteWord(c.SP, uint16(c.R[inst.x]))
		c.SP += 2
		c.advance()
	case opPOP:
		c.SP -= 2
		c.R[inst.x] = int16(mem.ReadWord(c.SP))
		c.advance()
	case opPUSHF:
		mem.WriteByte(c.SP, byte(c.F))
		mem.WriteByte(c.SP+1, 0)
		c.SP += 2
		c.advance()

	default:
		if isIgnorableOpcode(word[0]) {
			if !c.warned[word[0]] {
				c.warned[word[0]] = true
				c.log.Logf("cpu: ignoring unimplemented opcode %02X at PC %04X", word[0], c.PC)
			}
			c.advance()
			return
		}
		panic(IllegalOpcodeError{Opcode: word[0], PC: c.PC})
	}
}

// advance moves PC past the instruction just executed. Control-transfer
// instructions set PC directly instead of calling advance.
func (c *CPU) advance() {
	c.PC += 4
}

// vblnk implements the cooperative VBLNK stall: if the frame clock has
// asserted vblank, clear it and advance; otherwise re-execute the same
// instruction on the next Step, spinning until the frame boundary flips it.
func (c *CPU) vblnk(fb *Video) {
	if fb.Vblank() {
		fb.ReleaseVblank()
		c.advance()
	}
}

func (c *CPU) call(mem *Memory, addr uint16) {
	mem.WriteWord(c.SP, c.PC)
	c.SP += 2
	c.PC = addr
}

func (c *CPU) ret(mem *Memory) {
	c.SP -= 2
	c.PC = mem.ReadWord(c.SP)
	c.advance()
}

func (c *CPU) rnd(x uint8, hhll uint16) {
	v := int16(c.randIntn(int(hhll) + 1))
	c.F.updateZN(v)
	c.R[x] = v
}

// jcc implements the 16-entry conditional jump table keyed by the X nibble.
func (c *CPU) jcc(inst instruction) {
	var cond bool

	switch inst.x {
	case 0x0: // Z
		cond = c.F.Z()
	case 0x1: // NZ
		cond = !c.F.Z()
	case 0x2: // N
		cond = c.F.N()
	case 0x3: // NN
		cond = !c.F.N()
	case 0x4: // P: non-zero and non-negative
		cond = !c.F.Z() && !c.F.N()
	case 0x5: // O
		cond = c.F.O()
	case 0x6: // NO
		cond = !c.F.O()
	case 0x7: // A: !C & !Z
		cond = !c.F.C() && !c.F.Z()
	case 0x8: // AE: !C
		cond = !c.F.C()
	case 0x9: // B: C
		cond = c.F.C()
	case 0xA: // BE: C | Z
		cond = c.F.C() || c.F.Z()
	case 0xB: // G: N==O & !Z
		cond = c.F.N() == c.F.O() && !c.F.Z()
	case 0xC: // GE: N==O
		cond = c.F.N() == c.F.O()
	case 0xD: // L: N!=O
		cond = c.F.N() != c.F.O()
	case 0xE: // LE: N!=O | Z
		cond = c.F.N() != c.F.O() || c.F.Z()
	default:
		panic(JumpConditionError{Condition: inst.x, PC: c.PC})
	}

	if cond {
		c.PC = inst.hhll()
	} else {
		c.advance()
	}
}

// add performs a + b on the unsigned 16-bit bit pattern to model wrap
// exactly, truncates back to 16 bits, and updates Z/N/C/O.
func (c *CPU) add(a, b int16) int16 {
	sum := uint32(uint16(a)) + uint32(uint16(b))
	result := int16(uint16(sum))

	c.F.updateZN(result)
	c.F.set(flagC, sum > 0xFFFF)

	signA, signB, signR := a < 0, b < 0, result < 0
	c.F.set(flagO, signA == signB && signR != signA)

	return result
}

// sub performs a - b, used by both SUB and CMP (CMP discards the result).
func (c *CPU) sub(a, b int16) int16 {
	result := int16(uint16(a) - uint16(b))

	c.F.updateZN(result)
	c.F.set(flagC, uint16(a) < uint16(b))

	signA, signB, signR := a < 0, b < 0, result < 0
	c.F.set(flagO, signA != signB && signR == signB)

	return result
}

// bitwise is the shared AND/OR/XOR/TST path: updates Z/N only, leaves C/O
// untouched.
func (c *CPU) bitwise(result int16) int16 {
	c.F.updateZN(result)
	return result
}

func (c *CPU) mul(a, b int16) int16 {
	product := uint32(uint16(a)) * uint32(uint16(b))
	result := int16(uint16(product))

	c.F.updateZN(result)
	c.F.set(flagC, product > 0xFFFF)

	return result
}

func (c *CPU) div(a, b int16) int16 {
	if b == 0 {
		panic(DivByZeroError{PC: c.PC})
	}

	result := a / b
	remainder := a % b

	c.F.updateZN(result)
	c.F.set(flagC, remainder != 0)

	return result
}

func (c *CPU) shiftCount(n int) int {
	if n < 0 || n >= 16 {
		panic(ShiftOverflowError{PC: c.PC, Count: n})
	}
	return n
}

func (c *CPU) shl(v int16, n int) int16 {
	n = c.shiftCount(n)
	u := uint16(v) << uint(n)

	var lastOut bool
	if n > 0 {
		lastOut = uint16(v)&(1<<uint(16-n)) != 0
	}

	result := int16(u)
	c.F.updateZN(result)
	c.F.set(flagC, lastOut)

	return result
}

func (c *CPU) shr(v int16, n int) int16 {
	n = c.shiftCount(n)
	u := uint16(v) >> uint(n)

	var lastOut bool
	if n > 0 {
		lastOut = uint16(v)&(1<<uint(n-1)) != 0
	}

	result := int16(u)
	c.F.updateZN(result)
	c.F.set(flagC, lastOut)

	return result
}

func (c *CPU) sar(v int16, n int) int16 {
	n = c.shiftCount(n)
	result := v >> uint(n)

	var lastOut bool
	if n > 0 {
		lastOut = uint16(v)&(1<<uint(n-1)) != 0
	}

	c.F.updateZN(result)
	c.F.set(flagC, lastOut)

	return result
}
