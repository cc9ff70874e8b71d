package procmem_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spelunky-fyi/memrauder/pkg/procmem"
)

func TestMatchesName(t *testing.T) {
	tests := []struct {
		name, comm, cmdline string
		want                bool
	}{
		{"Spel2.exe", "Spel2.exe", "", true},
		{"Spel2.exe", "bash", "/bin/bash\x00-c", false},
		{"Spel2.exe", "", "Z:\\games\\Spelunky 2\\Spel2.exe\x00", true},
		{"Spel2.exe", "wine64-preload", "C:\\Spelunky 2\\spel2.EXE\x00--console", true},
		{"averyveryverylongname", "averyveryverylo", "", true},
	}
	for _, tc := range tests {
		got := procmem.MatchesName(tc.name, tc.comm, []byte(tc.cmdline))
		require.Equal(t, tc.want, got, "%q %q", tc.comm, tc.cmdline)
	}
}
