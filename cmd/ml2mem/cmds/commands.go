package cmds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spelunky-fyi/memrauder/pkg/config"
	"github.com/spelunky-fyi/memrauder/pkg/logflags"
	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
	"github.com/spelunky-fyi/memrauder/pkg/poller"
	"github.com/spelunky-fyi/memrauder/pkg/procmem"
	"github.com/spelunky-fyi/memrauder/pkg/spel2"
	"github.com/spelunky-fyi/memrauder/pkg/version"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string

	// attachPid is the pid of the game, found by name if zero.
	attachPid int
	// processName overrides the process-name config option.
	processName string
	// uidHash overrides the uid-hash config option.
	uidHash keyHashFlag

	// entityAs is the entity type used by the entity command.
	entityAs string

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config
)

const ml2memCommandLongDesc = `ml2mem reads the state of a running Spelunky 2 game.

It attaches to the game process, finds the game state in its memory and
decodes it, without ever writing to the game.`

// New returns an initialized command tree.
func New(docCall bool) *cobra.Command {
	// Config setup and load.
	conf = config.LoadConfig()

	// Main ml2mem root command.
	rootCommand = &cobra.Command{
		Use:           "ml2mem",
		Short:         "ml2mem reads the state of a running Spelunky 2 game.",
		Long:          ml2memCommandLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'ml2mem help log')`)
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'ml2mem help log').")

	rootCommand.PersistentFlags().IntVarP(&attachPid, "pid", "p", 0, "Pid of the game, found by name if not set.")
	rootCommand.PersistentFlags().StringVar(&processName, "process", "", "Name of the game executable.")
	rootCommand.PersistentFlags().Var(&uidHash, "uid-hash", "Key hash of the entity table, identity or lowbias32.")

	// 'state' subcommand.
	stateCommand := &cobra.Command{
		Use:   "state",
		Short: "Print the game state once.",
		RunE:  stateCmd,
	}
	rootCommand.AddCommand(stateCommand)

	// 'entity' subcommand.
	entityCommand := &cobra.Command{
		Use:   "entity uid...",
		Short: "Print entities by uid.",
		Long: `Looks up entities in the game's entity table and prints them.

Use --as to decode the entities as a more specific type, one of:

	entity		Base entity fields (default)
	movable		Movable fields: velocity, state, health
	mount		Movable fields plus whether the mount is tamed
	player		Movable fields plus the inventory
	light-emitter	Movable fields plus the emitted light
`,
		Args: cobra.MinimumNArgs(1),
		RunE: entityCmd,
	}
	entityCommand.Flags().StringVar(&entityAs, "as", "entity", "Entity type to decode as.")
	rootCommand.AddCommand(entityCommand)

	// 'watch' subcommand.
	watchCommand := &cobra.Command{
		Use:   "watch",
		Short: "Print the game state every poll interval.",
		Long: `Polls the game state every poll-interval (see the config file) and prints
a line for each poll. On a terminal the line is redrawn in place.

Stop with Ctrl-C.`,
		RunE: watchCmd,
	}
	rootCommand.AddCommand(watchCommand)

	// 'version' subcommand.
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Current()
			fmt.Fprintln(cmd.OutOrStdout(), info)
			if log {
				fmt.Fprint(cmd.OutOrStdout(), info.Details())
			}
		},
	}
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	memrauder	Log failed reads while decoding
	uidmap		Log every entity lookup
	poller		Log every poll
	reader		Log every read of the game's memory

Entity table inconsistencies and failed polls are logged as warnings even
when --log is not set.

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.
`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

// keyHashFlag is the value of --uid-hash.
type keyHashFlag struct {
	hash spel2.KeyHash
	set  bool
}

var _ pflag.Value = (*keyHashFlag)(nil)

func (f *keyHashFlag) String() string {
	if !f.set {
		return ""
	}
	return f.hash.String()
}

func (f *keyHashFlag) Set(s string) error {
	h, err := spel2.ParseKeyHash(s)
	if err != nil {
		return err
	}
	f.hash, f.set = h, true
	return nil
}

func (f *keyHashFlag) Type() string { return "hash" }

// session is an attached game with its game state located.
type session struct {
	proc      *procmem.Process
	stateAddr uint64
	hash      spel2.KeyHash
	ctx       *memrauder.Context
}

func setup() error {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		return err
	}
	if processName != "" {
		conf.ProcessName = processName
	}
	if uidHash.set {
		conf.UidHash = uidHash.hash.String()
	}
	return nil
}

func attach() (*session, error) {
	hash, err := conf.KeyHash()
	if err != nil {
		return nil, err
	}
	pid := attachPid
	if pid == 0 {
		pid, err = procmem.FindPid(conf.Process())
		if err != nil {
			return nil, err
		}
	}
	proc, err := procmem.Attach(pid, procmem.WithPageCache(conf.CachePages()))
	if err != nil {
		return nil, err
	}
	regions, err := proc.Regions()
	if err != nil {
		return nil, fmt.Errorf("could not read memory map of %d: %v", pid, err)
	}
	feedcode, err := spel2.FindFeedcode(proc, feedcodeRegions(regions))
	if err != nil {
		return nil, err
	}
	proc.Purge()
	return &session{
		proc:      proc,
		stateAddr: spel2.StateAddr(feedcode, conf.Offset()),
		hash:      hash,
		ctx:       memrauder.NewContext(proc, memrauder.WithMaxVectorBytes(conf.VectorLimit())),
	}, nil
}

// feedcodeRegions returns the regions that can hold the game state:
// readable, private, anonymous and high enough.
func feedcodeRegions(regions []procmem.Region) []spel2.Region {
	var r []spel2.Region
	for _, region := range regions {
		if !region.Read || !region.Private || !region.Anonymous() {
			continue
		}
		if region.Addr+region.Size <= spel2.MinFeedcodeAddr {
			continue
		}
		r = append(r, spel2.Region{Addr: region.Addr, Size: region.Size})
	}
	return r
}

func stateCmd(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logflags.Close()

	s, err := attach()
	if err != nil {
		return err
	}
	state, ok, err := memrauder.AtAddr(s.ctx, spel2.StateSchema, s.stateAddr)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("could not read game state at %#x", s.stateAddr)
	}
	printState(outWriter(cmd.OutOrStdout()), state)
	return nil
}

func entityCmd(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logflags.Close()

	uids := make([]uint32, len(args))
	for i, arg := range args {
		uid, err := strconv.ParseUint(arg, 0, 32)
		if err != nil {
			return fmt.Errorf("invalid uid %q: %v", arg, err)
		}
		uids[i] = uint32(uid)
	}
	printer, err := entityPrinter(entityAs)
	if err != nil {
		return err
	}

	s, err := attach()
	if err != nil {
		return err
	}
	mt, err := memrauder.Build(spel2.UidEntityMapOf(s.hash, nil))
	if err != nil {
		return err
	}
	m, ok, err := memrauder.AtAddr(s.ctx, mt, spel2.EntityMapAddr(s.stateAddr))
	if err != nil {
		if memrauder.IsKind(err, memrauder.KindInvariant) {
			return errors.New("entity table is not initialized, load a level first")
		}
		return err
	}
	if !ok {
		return fmt.Errorf("could not read entity table at %#x", spel2.EntityMapAddr(s.stateAddr))
	}

	out := outWriter(cmd.OutOrStdout())
	for _, uid := range uids {
		if err := printer(out, uid, m.Get(uid)); err != nil {
			return err
		}
	}
	return nil
}

func watchCmd(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logflags.Close()

	interval, err := conf.Interval()
	if err != nil {
		return err
	}
	s, err := attach()
	if err != nil {
		return err
	}
	p, err := poller.New(s.proc, poller.Config{
		StateAddr:      s.stateAddr,
		Interval:       interval,
		Hash:           s.hash,
		ContextOptions: []memrauder.ContextOption{memrauder.WithMaxVectorBytes(conf.VectorLimit())},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := newWatchWriter(cmd.OutOrStdout())
	defer w.Close()
	return p.Run(ctx, func(snap *poller.Snapshot) {
		w.Show(watchLine(snap))
	})
}

func outWriter(w io.Writer) io.Writer {
	if w == os.Stdout {
		return stdout()
	}
	return w
}
