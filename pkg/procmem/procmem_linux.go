package procmem

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	sys "golang.org/x/sys/unix"
)

func checkAttach(pid int) error {
	if _, err := os.Stat(fmt.Sprintf("/proc/%d", pid)); err != nil {
		return fmt.Errorf("could not attach to pid %d: %w", pid, err)
	}
	return nil
}

// readMemory calls process_vm_readv
func readMemory(pid int, buf []byte, addr uint64) (int, error) {
	local := []sys.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []sys.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}
	return sys.ProcessVMReadv(pid, local, remote, 0)
}

func regions(pid int) ([]Region, error) {
	buf, err := os.ReadFile(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	return ParseMaps(buf)
}

// FindPid returns the pid of the first process called name.
func FindPid(name string) (int, error) {
	dirs, err := filepath.Glob("/proc/[0-9]*")
	if err != nil {
		return 0, err
	}
	for _, dir := range dirs {
		pid, err := strconv.Atoi(filepath.Base(dir))
		if err != nil {
			continue
		}
		comm, _ := os.ReadFile(filepath.Join(dir, "comm"))
		cmdline, _ := os.ReadFile(filepath.Join(dir, "cmdline"))
		if matchesName(name, string(bytes.TrimSuffix(comm, []byte("\n"))), cmdline) {
			return pid, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrProcessNotFound, name)
}
