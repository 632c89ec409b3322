// Package gbcore ties the CPU, memory bus and cartridge into a runnable
// system: stepping one CPU instruction at a time, advancing every
// peripheral by the cycles that instruction cost, and reporting whole
// frames back to the caller.
package gbcore

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oakfield-labs/gbcore/bus"
	"github.com/oakfield-labs/gbcore/cart"
	"github.com/oakfield-labs/gbcore/cpu"
	"github.com/oakfield-labs/gbcore/video"
)

// cyclesPerFrame is one full PPU frame: 154 scanlines of 456 dots each.
const cyclesPerFrame = 154 * 456

// Config bundles every constructor-time setting a System needs, so callers
// configure breakpoints and logging up front instead of reaching back into
// the CPU after New returns.
type Config struct {
	Video video.Config
	Break cpu.BreakConfig

	// SkipBootROM exists for parity with cores that can execute a boot ROM
	// image before handing off to the cartridge. This one never does: Reset
	// always applies the documented post-boot CPU register state directly
	// (I/O registers start at zero), so this field has no effect.
	SkipBootROM bool

	// LogLevel is the minimum level New installs a default slog text
	// handler at. Its zero value is slog.LevelInfo, matching slog's own
	// default, so a zero Config logs exactly as the teacher's CLI does.
	LogLevel slog.Level
}

// System is the root emulation object: one CPU, one bus, one cartridge.
type System struct {
	cpu *cpu.CPU
	bus *bus.Bus

	frameCount       uint64
	instructionCount uint64
}

// New builds a system around an already-loaded ROM image.
func New(rom []byte, cfg Config) (*System, error) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	c, err := cart.Load(rom)
	if err != nil {
		return nil, fmt.Errorf("gbcore: %w", err)
	}

	b := bus.New(c, cfg.Video)
	s := &System{
		cpu: cpu.New(b),
		bus: b,
	}
	s.cpu.Reset()
	s.cpu.SetBreakConfig(cfg.Break)
	return s, nil
}

// NewFromFile loads a ROM image from disk and builds a System around it.
func NewFromFile(path string, cfg Config) (*System, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gbcore: reading rom: %w", err)
	}
	return New(data, cfg)
}

// Step executes a single CPU instruction (or interrupt dispatch, or one
// idle cycle while halted) and advances every peripheral by the resulting
// T-cycle cost. It returns the number of T-cycles consumed.
func (s *System) Step() int {
	cycles := s.cpu.Step()
	s.bus.Tick(cycles)
	s.instructionCount++
	return cycles
}

// RunUntilFrame steps the system until one full frame (70224 T-cycles) of
// PPU time has elapsed.
func (s *System) RunUntilFrame() {
	total := 0
	for total < cyclesPerFrame {
		total += s.Step()
	}
	s.frameCount++
}

func (s *System) FrameBuffer() *video.FrameBuffer { return s.bus.PPU().FrameBuffer() }
func (s *System) GetSamples(count int) []int16    { return s.bus.APU().GetSamples(count) }

func (s *System) Press(b bus.Button)   { s.bus.Joypad().Press(b) }
func (s *System) Release(b bus.Button) { s.bus.Joypad().Release(b) }

func (s *System) CPU() *cpu.CPU { return s.cpu }
func (s *System) Bus() *bus.Bus { return s.bus }

func (s *System) FrameCount() uint64       { return s.frameCount }
func (s *System) InstructionCount() uint64 { return s.instructionCount }

// SetBreakConfig installs a breakpoint configuration on the CPU; Step will
// continue to execute normally but WantsBreak() reports whether the most
// recently executed instruction matched.
func (s *System) SetBreakConfig(cfg cpu.BreakConfig) { s.cpu.SetBreakConfig(cfg) }
func (s *System) WantsBreak() bool                   { return s.cpu.WantsBreak() }

// SerialOutput returns every line the ROM has written to the serial port so
// far, useful for headless test-ROM runs that report pass/fail over serial.
func (s *System) SerialOutput() []string { return s.bus.Serial().Lines }
