package spel2

import (
	"fmt"
	"strings"
)

// EntityType is the id of an entity kind in the entity database.
type EntityType uint32

// Layer is the level layer an entity lives in.
type Layer uint8

const (
	LayerFront Layer = 0
	LayerBack  Layer = 1
)

func (l Layer) String() string {
	switch l {
	case LayerFront:
		return "front"
	case LayerBack:
		return "back"
	}
	return fmt.Sprintf("Layer(%d)", uint8(l))
}

// CharState is the animation state of a Movable.
type CharState uint8

const (
	CharFlailing CharState = iota
	CharStanding
	CharSitting
	CharUnknown1
	CharHanging
	CharDucking
	CharClimbing
	CharPushing
	CharJumping
	CharFalling
	CharDropping
	CharUnknown2
	CharAttacking
	CharUnknown3
	CharUnknown4
	CharUnknown5
	CharUnknown6
	CharThrowing
	CharStunned
	CharEntering
	CharLoading
	CharExiting
	CharDying
	CharUnknown7
	CharUnknown8
	CharUnknown9
	CharUnknown10
	CharUnknown11
	CharUnknown12
	CharUnknown13
	CharUnknown14
)

var charStateNames = [...]string{
	CharFlailing:  "flailing",
	CharStanding:  "standing",
	CharSitting:   "sitting",
	CharHanging:   "hanging",
	CharDucking:   "ducking",
	CharClimbing:  "climbing",
	CharPushing:   "pushing",
	CharJumping:   "jumping",
	CharFalling:   "falling",
	CharDropping:  "dropping",
	CharAttacking: "attacking",
	CharThrowing:  "throwing",
	CharStunned:   "stunned",
	CharEntering:  "entering",
	CharLoading:   "loading",
	CharExiting:   "exiting",
	CharDying:     "dying",
	CharUnknown14: "",
}

func (s CharState) Valid() bool { return s <= CharUnknown14 }

func (s CharState) String() string {
	if s.Valid() && charStateNames[s] != "" {
		return charStateNames[s]
	}
	return fmt.Sprintf("CharState(%d)", uint8(s))
}

// Screen identifies the game screen being shown.
type Screen int32

const (
	ScreenUnknown Screen = iota - 1
	ScreenLogo
	ScreenIntro
	ScreenPrologue
	ScreenTitle
	ScreenMainMenu
	ScreenOptions
	ScreenUnknown1
	ScreenLeaderboards
	ScreenSeedInput
	ScreenCharacterSelect
	ScreenTeamSelect
	ScreenCamp
	ScreenLevel
	ScreenLevelTransition
	ScreenDeath
	ScreenSpaceship
	ScreenEnding
	ScreenCredits
	ScreenScores
	ScreenConstellation
	ScreenRecap
	ScreenArenaMenu
	ScreenUnknown2
	ScreenUnknown3
	ScreenUnknown4
	ScreenArenaIntro
	ScreenArenaMatch
	ScreenArenaScores
	ScreenLoadingOnline
	ScreenLobby
)

var screenNames = map[Screen]string{
	ScreenUnknown:         "unknown",
	ScreenLogo:            "logo",
	ScreenIntro:           "intro",
	ScreenPrologue:        "prologue",
	ScreenTitle:           "title",
	ScreenMainMenu:        "main menu",
	ScreenOptions:         "options",
	ScreenLeaderboards:    "leaderboards",
	ScreenSeedInput:       "seed input",
	ScreenCharacterSelect: "character select",
	ScreenTeamSelect:      "team select",
	ScreenCamp:            "camp",
	ScreenLevel:           "level",
	ScreenLevelTransition: "level transition",
	ScreenDeath:           "death",
	ScreenSpaceship:       "spaceship",
	ScreenEnding:          "ending",
	ScreenCredits:         "credits",
	ScreenScores:          "scores",
	ScreenConstellation:   "constellation",
	ScreenRecap:           "recap",
	ScreenArenaMenu:       "arena menu",
	ScreenArenaIntro:      "arena intro",
	ScreenArenaMatch:      "arena match",
	ScreenArenaScores:     "arena scores",
	ScreenLoadingOnline:   "loading online",
	ScreenLobby:           "lobby",
}

func (s Screen) Valid() bool { return s >= ScreenUnknown && s <= ScreenLobby }

func (s Screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Screen(%d)", int32(s))
}

// Theme is the visual theme of a level. Zero is used outside of runs.
type Theme uint8

const (
	ThemeDwelling Theme = iota + 1
	ThemeJungle
	ThemeVolcana
	ThemeOlmec
	ThemeTidePool
	ThemeTemple
	ThemeIceCaves
	ThemeNeoBabylon
	ThemeSunkenCity
	ThemeCosmicOcean
	ThemeCityOfGold
	ThemeDuat
	ThemeAbzu
	ThemeTiamat
	ThemeEggplantWorld
	ThemeHundun
	ThemeBaseCamp
	ThemeArena
)

var themeNames = [...]string{
	ThemeDwelling:      "dwelling",
	ThemeJungle:        "jungle",
	ThemeVolcana:       "volcana",
	ThemeOlmec:         "olmec",
	ThemeTidePool:      "tide pool",
	ThemeTemple:        "temple",
	ThemeIceCaves:      "ice caves",
	ThemeNeoBabylon:    "neo babylon",
	ThemeSunkenCity:    "sunken city",
	ThemeCosmicOcean:   "cosmic ocean",
	ThemeCityOfGold:    "city of gold",
	ThemeDuat:          "duat",
	ThemeAbzu:          "abzu",
	ThemeTiamat:        "tiamat",
	ThemeEggplantWorld: "eggplant world",
	ThemeHundun:        "hundun",
	ThemeBaseCamp:      "base camp",
	ThemeArena:         "arena",
}

func (t Theme) Valid() bool { return t >= ThemeDwelling && t <= ThemeArena }

func (t Theme) String() string {
	if t.Valid() {
		return themeNames[t]
	}
	return fmt.Sprintf("Theme(%d)", uint8(t))
}

// WinState is how the current run was won, if at all.
type WinState int8

const (
	WinUnknown WinState = iota - 1
	WinNone
	WinTiamat
	WinHundun
	WinCosmicOcean
)

func (w WinState) Valid() bool { return w >= WinUnknown && w <= WinCosmicOcean }

func (w WinState) String() string {
	switch w {
	case WinUnknown:
		return "unknown"
	case WinNone:
		return "none"
	case WinTiamat:
		return "tiamat"
	case WinHundun:
		return "hundun"
	case WinCosmicOcean:
		return "cosmic ocean"
	}
	return fmt.Sprintf("WinState(%d)", int8(w))
}

// QuestFlags mark the challenges active in the current run. The game keeps
// other, undocumented bits in the same word.
type QuestFlags uint32

const (
	QuestMoonChallenge QuestFlags = 1 << 24
	QuestStarChallenge QuestFlags = 1 << 25
	QuestSunChallenge  QuestFlags = 1 << 26
)

func (f QuestFlags) Has(flag QuestFlags) bool { return f&flag == flag }

// PresenceFlags mark the challenge doors present in the current level.
type PresenceFlags uint32

const (
	PresenceMoonChallenge PresenceFlags = 1 << 8
	PresenceStarChallenge PresenceFlags = 1 << 9
	PresenceSunChallenge  PresenceFlags = 1 << 10
)

func (f PresenceFlags) Has(flag PresenceFlags) bool { return f&flag == flag }

// HudFlags is only partially documented.
type HudFlags uint32

const (
	HudUpbeatDwellingMusic     HudFlags = 1 << 0
	HudRunningTutorialSpeedrun HudFlags = 1 << 2
	HudAllowPause              HudFlags = 1 << 19
	HudHaveClover              HudFlags = 1 << 22
)

func (f HudFlags) Has(flag HudFlags) bool { return f&flag == flag }

// RunRecapFlags summarize a run for the recap screen.
type RunRecapFlags uint32

const (
	RecapPacifist RunRecapFlags = 1 << iota
	RecapVegan
	RecapVegetarian
	RecapPettyCriminal
	RecapWantedCriminal
	RecapCrimeLord
	RecapKing
	RecapQueen
	RecapFool
	RecapEggplant
	RecapNoGold
	RecapLikedPets
	RecapLovedPets
	RecapTookDamage
	RecapUsedAnkh
	RecapKilledKingu
	RecapKilledOsiris
	RecapNormalEnding
	RecapHardEnding
	RecapSpecialEnding
	RecapDied
)

var recapNames = [...]string{
	"pacifist", "vegan", "vegetarian", "petty criminal", "wanted criminal",
	"crime lord", "king", "queen", "fool", "eggplant", "no gold", "liked pets",
	"loved pets", "took damage", "used ankh", "killed kingu", "killed osiris",
	"normal ending", "hard ending", "special ending", "died",
}

func (RunRecapFlags) KnownBits() uint64 { return uint64(RecapDied<<1 - 1) }

func (f RunRecapFlags) Has(flag RunRecapFlags) bool { return f&flag == flag }

func (f RunRecapFlags) String() string {
	var names []string
	for i, name := range recapNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}
