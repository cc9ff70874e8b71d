// Package procmem reads the memory of a live process.
package procmem

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/spelunky-fyi/memrauder/pkg/logflags"
	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
)

// ErrNotSupported is returned on platforms without a process memory reader.
var ErrNotSupported = fmt.Errorf("reading process memory is not supported on %s", runtime.GOOS)

// ErrProcessNotFound is returned by FindPid when no process has the
// requested name.
var ErrProcessNotFound = errors.New("process not found")

// Region is an entry of the target's memory map.
type Region struct {
	Addr uint64
	Size uint64

	Read    bool
	Write   bool
	Exec    bool
	Private bool

	Filename string
	Offset   uint64
}

// Anonymous reports whether the region is not backed by a file.
func (r Region) Anonymous() bool {
	return r.Filename == "" || strings.HasPrefix(r.Filename, "[")
}

// Process is an attached process. It implements memrauder.MemoryReader.
type Process struct {
	pid   int
	cache *PageCache
	log   logflags.Logger
}

// Option configures Attach.
type Option func(*Process) error

// WithPageCache serves reads through a cache of up to pages pages. The
// cache must be purged between polls, see Purge.
func WithPageCache(pages int) Option {
	return func(p *Process) error {
		if pages <= 0 {
			return nil
		}
		c, err := NewPageCache(rawReader{p}, pages)
		if err != nil {
			return err
		}
		p.cache = c
		return nil
	}
}

// Attach opens the process with the given pid for reading.
func Attach(pid int, opts ...Option) (*Process, error) {
	if err := checkAttach(pid); err != nil {
		return nil, err
	}
	p := &Process{pid: pid, log: logflags.ReaderLogger()}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.log.Debugf("attached to process %d", pid)
	return p, nil
}

// Pid returns the process id.
func (p *Process) Pid() int { return p.pid }

// ReadMemory implements memrauder.MemoryReader.
func (p *Process) ReadMemory(buf []byte, addr uint64) (int, error) {
	if p.cache != nil {
		return p.cache.ReadMemory(buf, addr)
	}
	return p.readRaw(buf, addr)
}

func (p *Process) readRaw(buf []byte, addr uint64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := readMemory(p.pid, buf, addr)
	if logflags.Reader() {
		if err != nil {
			p.log.Debugf("read %#x+%d: %v", addr, len(buf), err)
		} else {
			p.log.Debugf("read %#x+%d: %d bytes", addr, len(buf), n)
		}
	}
	if err == nil && n != len(buf) {
		return n, fmt.Errorf("short read at %#x: %d of %d bytes", addr, n, len(buf))
	}
	return n, err
}

// Purge drops cached pages. Call it once per poll so every poll sees the
// current memory of the target.
func (p *Process) Purge() {
	if p.cache != nil {
		p.cache.Purge()
	}
}

// Regions returns the memory map of the process.
func (p *Process) Regions() ([]Region, error) {
	return regions(p.pid)
}

// rawReader bypasses the page cache.
type rawReader struct{ p *Process }

func (r rawReader) ReadMemory(buf []byte, addr uint64) (int, error) {
	return r.p.readRaw(buf, addr)
}

var _ memrauder.MemoryReader = (*Process)(nil)

// ParseMaps parses the contents of /proc/<pid>/maps.
func ParseMaps(data []byte) ([]Region, error) {
	var r []Region
	for i, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		region, err := parseMapsLine(i+1, line)
		if err != nil {
			return nil, err
		}
		r = append(r, region)
	}
	return r, nil
}

func parseMapsLine(lineno int, in string) (Region, error) {
	fields := strings.Fields(in)
	if len(fields) < 5 {
		return Region{}, fmt.Errorf("malformed /proc/pid/maps on line %d: %q (wrong number of fields)", lineno, in)
	}

	v := strings.Split(fields[0], "-")
	if len(v) != 2 {
		return Region{}, fmt.Errorf("malformed /proc/pid/maps on line %d: %q (bad first field)", lineno, in)
	}
	start, err := strconv.ParseUint(v[0], 16, 64)
	if err != nil {
		return Region{}, fmt.Errorf("malformed /proc/pid/maps on line %d: %q (%v)", lineno, in, err)
	}
	end, err := strconv.ParseUint(v[1], 16, 64)
	if err != nil {
		return Region{}, fmt.Errorf("malformed /proc/pid/maps on line %d: %q (%v)", lineno, in, err)
	}

	perm := fields[1]
	if len(perm) < 4 {
		return Region{}, fmt.Errorf("malformed /proc/pid/maps on line %d: %q (permissions column too short)", lineno, in)
	}

	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return Region{}, fmt.Errorf("malformed /proc/pid/maps on line %d: %q (%v)", lineno, in, err)
	}

	var filename string
	if len(fields) > 5 {
		filename = strings.Join(fields[5:], " ")
	}
	if strings.HasPrefix(fields[3], "00:") {
		offset = 0
	}

	return Region{
		Addr: start,
		Size: end - start,

		Read:    perm[0] == 'r',
		Write:   perm[1] == 'w',
		Exec:    perm[2] == 'x',
		Private: perm[3] == 'p',

		Filename: filename,
		Offset:   offset,
	}, nil
}

// matchesName reports whether a process with the given comm and command
// line is name. comm is truncated by the kernel, so the command line is
// checked too; under Wine it holds a Windows path.
func matchesName(name, comm string, cmdline []byte) bool {
	if comm == name || (len(name) > 15 && comm == name[:15]) {
		return true
	}
	argv0 := string(cmdline)
	if i := strings.IndexByte(argv0, 0); i >= 0 {
		argv0 = argv0[:i]
	}
	if argv0 == "" {
		return false
	}
	argv0 = strings.ReplaceAll(argv0, "\\", "/")
	if i := strings.LastIndexByte(argv0, '/'); i >= 0 {
		argv0 = argv0[i+1:]
	}
	return strings.EqualFold(argv0, name)
}
