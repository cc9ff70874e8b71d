package spel2

import (
	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
)

// State is the global game state.
type State struct {
	ScreenLast    Screen
	Screen        Screen
	ScreenNext    Screen
	QuestFlags    QuestFlags
	WorldStart    uint8
	LevelStart    uint8
	ThemeStart    Theme
	TimeTotal     uint32
	World         uint8
	WorldNext     uint8
	Level         uint8
	LevelNext     uint8
	Theme         Theme
	ThemeNext     Theme
	WinState      WinState
	PresenceFlags PresenceFlags
	RunRecapFlags RunRecapFlags
	HudFlags      HudFlags
	// The total amount spent at shops and stolen by leprechauns. This is
	// non-positive during the run. If the run ends in a victory, the bonus
	// is added to it during the score screen.
	MoneyShopTotal int32
}

// EntityMapOffset is the offset of the uid to entity table from State.
// It is not part of the State layout since it is uninitialized until the
// first level loads.
const EntityMapOffset = 0x1308

// EntityMapAddr returns the address of the uid to entity table.
func EntityMapAddr(state uint64) uint64 {
	return state + EntityMapOffset
}

func (State) Layout() memrauder.Layout[State] {
	return memrauder.Layout[State]{
		Fields: []memrauder.FieldSpec[State]{
			memrauder.Field("screen_last", 0x08, memrauder.EnumOf[Screen](memrauder.CTypeInt32), func(s *State, v Screen) { s.ScreenLast = v }),
			memrauder.Field("screen", 0x0C, memrauder.EnumOf[Screen](memrauder.CTypeInt32), func(s *State, v Screen) { s.Screen = v }),
			memrauder.Field("screen_next", 0x10, memrauder.EnumOf[Screen](memrauder.CTypeInt32), func(s *State, v Screen) { s.ScreenNext = v }),
			memrauder.Field("quest_flags", 0x38, memrauder.Uint32[QuestFlags](), func(s *State, v QuestFlags) { s.QuestFlags = v }),
			memrauder.Field("money_shop_total", 0x58, memrauder.Int32[int32](), func(s *State, v int32) { s.MoneyShopTotal = v }),
			memrauder.Field("world_start", 0x5C, memrauder.Uint8[uint8](), func(s *State, v uint8) { s.WorldStart = v }),
			memrauder.Field("level_start", 0x5D, memrauder.Uint8[uint8](), func(s *State, v uint8) { s.LevelStart = v }),
			memrauder.Field("theme_start", 0x5E, memrauder.Uint8[Theme](), func(s *State, v Theme) { s.ThemeStart = v }),
			memrauder.Field("time_total", 0x64, memrauder.Uint32[uint32](), func(s *State, v uint32) { s.TimeTotal = v }),
			memrauder.Field("world", 0x68, memrauder.Uint8[uint8](), func(s *State, v uint8) { s.World = v }),
			memrauder.Field("world_next", 0x69, memrauder.Uint8[uint8](), func(s *State, v uint8) { s.WorldNext = v }),
			memrauder.Field("level", 0x6A, memrauder.Uint8[uint8](), func(s *State, v uint8) { s.Level = v }),
			memrauder.Field("level_next", 0x6B, memrauder.Uint8[uint8](), func(s *State, v uint8) { s.LevelNext = v }),
			memrauder.Field("theme", 0x74, memrauder.Uint8[Theme](), func(s *State, v Theme) { s.Theme = v }),
			memrauder.Field("theme_next", 0x75, memrauder.Uint8[Theme](), func(s *State, v Theme) { s.ThemeNext = v }),
			memrauder.Field("win_state", 0x76, memrauder.EnumOf[WinState](memrauder.CTypeInt8), func(s *State, v WinState) { s.WinState = v }),
			memrauder.Field("run_recap_flags", 0x9F4, memrauder.FlagsOf[RunRecapFlags](memrauder.CTypeUint32), func(s *State, v RunRecapFlags) { s.RunRecapFlags = v }),
			memrauder.Field("hud_flags", 0xA10, memrauder.Uint32[HudFlags](), func(s *State, v HudFlags) { s.HudFlags = v }),
			memrauder.Field("presence_flags", 0xA14, memrauder.Uint32[PresenceFlags](), func(s *State, v PresenceFlags) { s.PresenceFlags = v }),
		},
	}
}

// StateSchema decodes State.
var StateSchema = memrauder.MustBuild(memrauder.StructOf[State]())
