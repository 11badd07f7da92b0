package chip16

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Target frame rate and instruction budget, the Chip16 convention this
// emulator targets (60 Hz, ~1,000,000 instructions/sec).
const (
	FrameRate            = 60
	InstructionsPerFrame = 1_000_000 / FrameRate
)

// KeyEvents reports key transitions observed by a Presenter's event pump
// since the previous poll.
type KeyEvents struct {
	Pressed  []uint8
	Released []uint8
}

// Presenter is the full contract a real front-end satisfies: window setup,
// the per-frame event pump, the frame handoff, and teardown. internal/
// sdlpresent implements this with go-sdl2; the Machine tests run with a nil
// Presenter.
type Presenter interface {
	Init() error
	PollEvents() (quit bool, keys KeyEvents)
	Present(fb *[ScreenHeight][ScreenWidth]uint8, bg uint8) error
	Close() error
}

// Machine composes the CPU, memory, and video into the runnable Chip16
// console, and drives the timed frame loop described in §4.5: one quantum
// of CPU work per frame followed by a frame handoff to the presentation
// adapter.
type Machine struct {
	CPU *CPU
	Mem *Memory
	FB  *Video

	Presenter Presenter
	Log       Logger

	// Paused freezes CPU stepping while still polling input and frame
	// timing, for an interactive debug front-end.
	Paused bool

	// Keys tracks which of the 16 guest input lines are currently held,
	// for front-ends that expose a Chip16-style key pad.
	Keys [16]bool

	// Speed overrides InstructionsPerFrame; zero means use the default.
	Speed int
}

// NewMachine wires a fresh CPU, Memory, and Video together.
func NewMachine(log Logger) *Machine {
	if log == nil {
		log = nopLogger{}
	}
	mem := &Memory{}
	fb := &Video{}
	cpu := NewCPU(rand.New(rand.NewSource(time.Now().UnixNano())), log)

	return &Machine{
		CPU: cpu,
		Mem: mem,
		FB:  fb,
		Log: log,
	}
}

// LoadROM loads data into memory and seeds the CPU's program counter from
// the header, per §4.5's "after load_rom and cpu.set_pc(mem.initial_pc())".
func (m *Machine) LoadROM(data []byte) error {
	if err := m.Mem.LoadROM(data, m.Log); err != nil {
		return err
	}
	m.CPU.Reset()
	m.CPU.SetPC(m.Mem.InitialPC())
	return nil
}

// FatalError wraps a run-time fatal CPU error with the PC/opcode/register
// context the distilled spec's §7 requires the core to report before
// terminating.
type FatalError struct {
	Err       error
	PC        uint16
	Opcode    byte
	Registers [16]int16
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v (opcode %02X at PC %04X, registers %v)", e.Err, e.Opcode, e.PC, e.Registers)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Run drives the frame loop until ctx is canceled, the presentation
// adapter requests quit, or a fatal CPU error occurs. It replaces an ad hoc
// "for processEvents() { ... }" loop with cooperative, context-based
// cancellation.
func (m *Machine) Run(ctx context.Context) error {
	if m.Presenter != nil {
		if err := m.Presenter.Init(); err != nil {
			return fmt.Errorf("machine: presenter init: %w", err)
		}
		defer m.Presenter.Close()
	}

	ticker := time.NewTicker(time.Second / FrameRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if quit, err := m.frame(); quit || err != nil {
				return err
			}
		}
	}
}

// frame executes one frame's worth of CPU work, polls input, and hands the
// framebuffer off to the presenter.
func (m *Machine) frame() (quit bool, err error) {
	if err := m.stepFrame(); err != nil {
		return false, err
	}

	if m.Presenter != nil {
		var keys KeyEvents
		quit, keys = m.Presenter.PollEvents()
		m.applyKeys(keys)
	}

	if m.Presenter != nil {
		if perr := m.FB.EndFrame(m.Presenter); perr != nil {
			return quit, perr
		}
	} else {
		_ = m.FB.EndFrame(nil)
	}

	return quit, nil
}

func (m *Machine) applyKeys(keys KeyEvents) {
	for _, k := range keys.Pressed {
		if k < 16 {
			m.Keys[k] = true
		}
	}
	for _, k := range keys.Released {
		if k < 16 {
			m.Keys[k] = false
		}
	}
}

// stepFrame runs up to one frame's instruction budget, recovering a fatal
// CPU panic into a FatalError. VBLNK naturally consumes the remaining
// budget by spinning on the same PC until the frame boundary flips the
// flag, so an overrun budget is not itself an error.
func (m *Machine) stepFrame() (err error) {
	if m.Paused {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			ferr := m.wrapFatal(r)
			m.Log.Logf("%v", ferr)
			err = ferr
		}
	}()

	budget := m.Speed
	if budget <= 0 {
		budget = InstructionsPerFrame
	}

	for i := 0; i < budget; i++ {
		m.CPU.Step(m.Mem, m.FB)
	}

	return nil
}

// Step executes a single instruction, for an interactive single-step
// front-end. It recovers a fatal CPU panic the same way stepFrame does.
func (m *Machine) Step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = m.wrapFatal(r)
		}
	}()

	m.CPU.Step(m.Mem, m.FB)
	return nil
}

func (m *Machine) wrapFatal(r any) error {
	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("%v", r)
	}

	opcode := m.Mem.ReadByte(m.CPU.PC)
	return &FatalError{
		Err:       cause,
		PC:        m.CPU.PC,
		Opcode:    opcode,
		Registers: m.CPU.R,
	}
}
