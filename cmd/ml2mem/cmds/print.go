package cmds

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
	"github.com/spelunky-fyi/memrauder/pkg/poller"
	"github.com/spelunky-fyi/memrauder/pkg/spel2"
)

const framesPerSecond = 60

// formatFrames formats a frame count as a run timer.
func formatFrames(frames uint32) string {
	ms := uint64(frames) * 1000 / framesPerSecond
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

func printState(w io.Writer, s spel2.State) {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "screen:\t%v (last %v, next %v)\n", s.Screen, s.ScreenLast, s.ScreenNext)
	fmt.Fprintf(tw, "level:\t%d-%d %v (next %d-%d %v)\n", s.World, s.Level, s.Theme, s.WorldNext, s.LevelNext, s.ThemeNext)
	fmt.Fprintf(tw, "start:\t%d-%d %v\n", s.WorldStart, s.LevelStart, s.ThemeStart)
	fmt.Fprintf(tw, "time:\t%s\n", formatFrames(s.TimeTotal))
	fmt.Fprintf(tw, "shop total:\t%d\n", s.MoneyShopTotal)
	fmt.Fprintf(tw, "win state:\t%v\n", s.WinState)
	fmt.Fprintf(tw, "run recap:\t%v\n", s.RunRecapFlags)
	fmt.Fprintf(tw, "quest flags:\t%#x\n", uint32(s.QuestFlags))
	fmt.Fprintf(tw, "presence flags:\t%#x\n", uint32(s.PresenceFlags))
	fmt.Fprintf(tw, "hud flags:\t%#x\n", uint32(s.HudFlags))
	tw.Flush()
}

type entityPrintFunc func(w io.Writer, uid uint32, p memrauder.PolyPointer[spel2.Entity]) error

// entityPrinter returns the printer for the --as flag of the entity
// command.
func entityPrinter(as string) (entityPrintFunc, error) {
	switch as {
	case "", "entity":
		return printAs(spel2.EntitySchema, func(w io.Writer, e spel2.Entity) {
			printEntityReduced(w, e.EntityReduced)
			if e.Overlay.Addr() != 0 {
				fmt.Fprintf(w, "\toverlay %#x", e.Overlay.Addr())
				if o, ok := e.Overlay.Value(); ok {
					fmt.Fprintf(w, " (uid %d)", o.UID)
				}
			}
		}), nil
	case "movable":
		return printAs(spel2.MovableSchema, printMovable), nil
	case "mount":
		return printAs(spel2.MountSchema, func(w io.Writer, m spel2.Mount) {
			printMovable(w, m.Movable)
			fmt.Fprintf(w, "\ttamed %v", m.IsTamed)
		}), nil
	case "player":
		return printAs(spel2.PlayerSchema, func(w io.Writer, p spel2.Player) {
			printMovable(w, p.Movable)
			if inv := p.Inventory; inv != nil {
				fmt.Fprintf(w, "\tbombs %d ropes %d money %d kills %d", inv.Bombs, inv.Ropes, inv.Money, inv.KillsLevel)
			}
		}), nil
	case "light-emitter":
		return printAs(spel2.LightEmitterSchema, func(w io.Writer, l spel2.LightEmitter) {
			printMovable(w, l.Movable)
			if light := l.EmittedLight; light != nil {
				fmt.Fprintf(w, "\tlight (%.2f, %.2f)", light.LightPosX, light.LightPosY)
			}
		}), nil
	}
	return nil, fmt.Errorf("unknown entity type %q", as)
}

func printAs[T any](mt memrauder.MemType[T], show func(io.Writer, T)) entityPrintFunc {
	return func(w io.Writer, uid uint32, p memrauder.PolyPointer[spel2.Entity]) error {
		if !p.Present() {
			fmt.Fprintf(w, "%d\tnot found\n", uid)
			return nil
		}
		v, ok, err := memrauder.AsType(p, mt)
		if err != nil {
			return fmt.Errorf("entity %d at %#x: %w", uid, p.Addr(), err)
		}
		if !ok {
			fmt.Fprintf(w, "%d\tunreadable at %#x\n", uid, p.Addr())
			return nil
		}
		fmt.Fprintf(w, "%d\t%#x", uid, p.Addr())
		show(w, v)
		fmt.Fprintln(w)
		return nil
	}
}

func printEntityReduced(w io.Writer, e spel2.EntityReduced) {
	fmt.Fprintf(w, "\ttype %d\tpos (%.2f, %.2f) %v", e.TypeID(), e.PositionX, e.PositionY, e.Layer)
	if len(e.Items) > 0 {
		items := make([]string, len(e.Items))
		for i, item := range e.Items {
			items[i] = fmt.Sprint(item)
		}
		fmt.Fprintf(w, "\titems [%s]", strings.Join(items, " "))
	}
}

func printMovable(w io.Writer, m spel2.Movable) {
	printEntityReduced(w, m.EntityReduced)
	fmt.Fprintf(w, "\tstate %v\thealth %d\tvelocity (%.2f, %.2f)", m.State, m.Health, m.VelocityX, m.VelocityY)
	if m.HoldingUID >= 0 {
		fmt.Fprintf(w, "\tholding %d", m.HoldingUID)
	}
}

func watchLine(snap *poller.Snapshot) string {
	s := snap.State
	line := fmt.Sprintf("#%d %s %v %d-%d %v", snap.Seq, formatFrames(s.TimeTotal), s.Screen, s.World, s.Level, s.Theme)
	if snap.Entities != nil {
		line += fmt.Sprintf(" entities:%d", snap.Entities.Len())
	}
	if s.RunRecapFlags != 0 {
		line += fmt.Sprintf(" recap:%v", s.RunRecapFlags)
	}
	return line
}

// watchWriter prints one line per poll, redrawing it in place when the
// output is a terminal.
type watchWriter struct {
	w      io.Writer
	redraw bool
	shown  bool
}

func newWatchWriter(out io.Writer) *watchWriter {
	ww := &watchWriter{w: out}
	if out == os.Stdout && isatty.IsTerminal(os.Stdout.Fd()) {
		ww.w = stdout()
		ww.redraw = true
	}
	return ww
}

// Show prints line.
func (ww *watchWriter) Show(line string) {
	if !ww.redraw {
		fmt.Fprintln(ww.w, line)
		return
	}
	// Erase the whole line, then return to column 0.
	fmt.Fprintf(ww.w, "\x1b[2K\r%s", line)
	ww.shown = true
}

// Close ends the line being redrawn.
func (ww *watchWriter) Close() {
	if ww.redraw && ww.shown {
		fmt.Fprintln(ww.w)
	}
}

// stdout returns standard output. On Windows consoles colorable translates
// the erase line escape Show emits.
func stdout() io.Writer {
	return colorable.NewColorableStdout()
}
