// Command gbcore-run is a headless runner: it loads a ROM, steps the system
// for a fixed number of frames, and optionally dumps periodic frame
// snapshots as half-block text art and the serial port's line log.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/oakfield-labs/gbcore"
	"github.com/oakfield-labs/gbcore/video"
)

func main() {
	app := cli.NewApp()
	app.Name = "gbcore-run"
	app.Description = "Headless runner for the gbcore emulation core"
	app.Usage = "gbcore-run --rom <file> --frames N [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run",
			Value: 60,
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save a frame snapshot every N frames (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots in (default: temp directory)",
		},
		cli.BoolFlag{
			Name:  "print-serial",
			Usage: "Print every line the ROM wrote to the serial port once execution finishes",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Log at debug level instead of info",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("gbcore-run failed", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("--frames must be a positive value")
	}

	logLevel := slog.LevelInfo
	if c.Bool("debug") {
		logLevel = slog.LevelDebug
	}

	sys, err := gbcore.NewFromFile(romPath, gbcore.Config{Video: video.Config{}, LogLevel: logLevel})
	if err != nil {
		return err
	}

	snapshotInterval := c.Int("snapshot-interval")
	snapshotDir := c.String("snapshot-dir")
	if snapshotInterval > 0 {
		if snapshotDir == "" {
			snapshotDir, err = os.MkdirTemp("", "gbcore-snapshots-*")
			if err != nil {
				return fmt.Errorf("creating snapshot directory: %w", err)
			}
		} else if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}

	romName := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))

	slog.Info("running", "rom", romPath, "frames", frames, "snapshot_interval", snapshotInterval)

	for i := 0; i < frames; i++ {
		sys.RunUntilFrame()

		if snapshotInterval > 0 && (i+1)%snapshotInterval == 0 {
			path := filepath.Join(snapshotDir, fmt.Sprintf("%s_frame_%d.txt", romName, i+1))
			if err := saveFrameSnapshot(sys, path); err != nil {
				slog.Error("failed to save snapshot", "frame", i+1, "path", path, "error", err)
			} else {
				slog.Info("saved frame snapshot", "frame", i+1, "path", path)
			}
		}
	}

	slog.Info("run completed", "frames", sys.FrameCount(), "instructions", sys.InstructionCount())

	if c.Bool("print-serial") {
		for _, line := range sys.SerialOutput() {
			fmt.Println(line)
		}
	}

	return nil
}

// saveFrameSnapshot renders the current framebuffer as half-block text art,
// two source pixel rows per printed line.
func saveFrameSnapshot(sys *gbcore.System, path string) error {
	frame := sys.FrameBuffer().ToSlice()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "# gbcore frame snapshot\n")
	fmt.Fprintf(file, "# frame: %d, instructions: %d\n", sys.FrameCount(), sys.InstructionCount())
	fmt.Fprintf(file, "# resolution: %dx%d pixels -> %dx%d text rows\n", video.Width, video.Height, video.Width, video.Height/2)
	fmt.Fprintf(file, "#\n")

	for _, line := range renderFrameToHalfBlocks(frame, video.Width, video.Height) {
		fmt.Fprintf(file, "%s\n", line)
	}
	return nil
}

// renderFrameToHalfBlocks packs two vertically adjacent pixel rows per
// printed character, using ASCII stand-ins for half blocks: ' ' (both
// light), '#' (both dark), '^' (top dark) and 'v' (bottom dark).
func renderFrameToHalfBlocks(frame []uint32, width, height int) []string {
	lines := make([]string, 0, height/2)
	for y := 0; y < height; y += 2 {
		var b strings.Builder
		for x := 0; x < width; x++ {
			top := shadeGlyph(frame[y*width+x])
			bottom := byte(' ')
			if y+1 < height {
				bottom = shadeGlyph(frame[(y+1)*width+x])
			}
			b.WriteByte(glyphFor(top, bottom))
		}
		lines = append(lines, b.String())
	}
	return lines
}

// shadeGlyph buckets a packed ARGB shade into light/dark for the half-block
// picker below.
func shadeGlyph(argb uint32) byte {
	if argb&0xFF < 0x80 {
		return 'd'
	}
	return 'l'
}

func glyphFor(top, bottom byte) byte {
	switch {
	case top == 'l' && bottom == 'l':
		return ' '
	case top == 'd' && bottom == 'd':
		return '#'
	case top == 'd':
		return '^'
	default:
		return 'v'
	}
}
