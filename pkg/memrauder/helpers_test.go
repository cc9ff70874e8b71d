package memrauder_test

import (
	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
)

type fourEnum uint8

const (
	fourOne fourEnum = iota + 1
	fourTwo
	fourThree
	fourFour
)

func (e fourEnum) Valid() bool { return e >= fourOne && e <= fourFour }

type sideFlags uint8

const (
	sideLeft sideFlags = 1 << iota
	sideRight
)

func (sideFlags) KnownBits() uint64 { return uint64(sideLeft | sideRight) }

type player struct {
	Hp    uint8
	Bombs uint8
}

func (player) Layout() memrauder.Layout[player] {
	return memrauder.Layout[player]{
		Fields: []memrauder.FieldSpec[player]{
			memrauder.Field("hp", 0, memrauder.Uint8[uint8](), func(p *player, v uint8) { p.Hp = v }),
			memrauder.Field("bombs", 1, memrauder.Uint8[uint8](), func(p *player, v uint8) { p.Bombs = v }),
		},
		ElementSize: 3,
	}
}

type gameState struct {
	Level   int
	Flags   []bool
	Players memrauder.Set[player]
	Money   *uint16
	Focus   memrauder.PolyPointer[player]
}

func (gameState) Layout() memrauder.Layout[gameState] {
	return memrauder.Layout[gameState]{
		Fields: []memrauder.FieldSpec[gameState]{
			memrauder.Field("level", 0x0, memrauder.Uint8[int](), func(s *gameState, v int) { s.Level = v }),
			memrauder.Field("flags", 0x2, memrauder.Array(memrauder.Bool(), 3), func(s *gameState, v []bool) { s.Flags = v }),
			memrauder.Field("players", 0x5, memrauder.ArraySet(memrauder.StructOf[player](), 2), func(s *gameState, v memrauder.Set[player]) { s.Players = v }),
			memrauder.Field("money", 0xB, memrauder.Pointer(memrauder.Uint16[uint16]()), func(s *gameState, v *uint16) { s.Money = v }),
			memrauder.Field("focus", 0x13, memrauder.Poly(memrauder.StructOf[player]()), func(s *gameState, v memrauder.PolyPointer[player]) { s.Focus = v }),
		},
	}
}

// Three levels of single inheritance, each adding one byte.
type lowest struct {
	A uint8
}

func lowestFields() []memrauder.FieldSpec[lowest] {
	return []memrauder.FieldSpec[lowest]{
		memrauder.Field("a", 0, memrauder.Uint8[uint8](), func(l *lowest, v uint8) { l.A = v }),
	}
}

func (lowest) Layout() memrauder.Layout[lowest] {
	return memrauder.Layout[lowest]{Fields: lowestFields()}
}

type middle struct {
	lowest
	B uint8
}

func middleFields() []memrauder.FieldSpec[middle] {
	return append(memrauder.Embed(func(m *middle) *lowest { return &m.lowest }, lowestFields()),
		memrauder.Field("b", 1, memrauder.Uint8[uint8](), func(m *middle, v uint8) { m.B = v }))
}

func (middle) Layout() memrauder.Layout[middle] {
	return memrauder.Layout[middle]{Fields: middleFields()}
}

type supreme struct {
	middle
	C uint8
}

func (supreme) Layout() memrauder.Layout[supreme] {
	return memrauder.Layout[supreme]{
		Fields: append(memrauder.Embed(func(s *supreme) *middle { return &s.middle }, middleFields()),
			memrauder.Field("c", 2, memrauder.Uint8[uint8](), func(s *supreme, v uint8) { s.C = v })),
	}
}
