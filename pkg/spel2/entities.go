// Package spel2 describes the in-memory layout of Spelunky 2's game state
// and entities, and implements lookups into the game's entity table.
package spel2

import (
	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
	"github.com/spelunky-fyi/memrauder/pkg/memrauder/msvc"
)

// EntityDBEntry is an entry of the entity database, shared by all entities
// of the same kind.
type EntityDBEntry struct {
	ID EntityType
}

// Size of an EntityDB struct.
const entityDBEntrySize = 256

func (EntityDBEntry) Layout() memrauder.Layout[EntityDBEntry] {
	return memrauder.Layout[EntityDBEntry]{
		Fields: []memrauder.FieldSpec[EntityDBEntry]{
			memrauder.Field("id", 0x14, memrauder.Uint32[EntityType](), func(e *EntityDBEntry, v EntityType) { e.ID = v }),
		},
		ElementSize: entityDBEntrySize,
	}
}

// EntityReduced is the part of Entity that an overlay pointer decodes. It
// exists to break the cycle Entity -> overlay -> Entity.
type EntityReduced struct {
	Type      *EntityDBEntry
	Items     []uint32
	UID       uint32
	PositionX float32
	PositionY float32
	Layer     Layer
}

func entityReducedFields() []memrauder.FieldSpec[EntityReduced] {
	return []memrauder.FieldSpec[EntityReduced]{
		memrauder.Field("type", 0x08, memrauder.Pointer(memrauder.StructOf[EntityDBEntry]()), func(e *EntityReduced, v *EntityDBEntry) { e.Type = v }),
		memrauder.Field("items", 0x18, msvc.Vector(memrauder.Uint32[uint32]()), func(e *EntityReduced, v []uint32) { e.Items = v }),
		memrauder.Field("uid", 0x38, memrauder.Uint32[uint32](), func(e *EntityReduced, v uint32) { e.UID = v }),
		memrauder.Field("position_x", 0x40, memrauder.Float[float32](), func(e *EntityReduced, v float32) { e.PositionX = v }),
		memrauder.Field("position_y", 0x44, memrauder.Float[float32](), func(e *EntityReduced, v float32) { e.PositionY = v }),
		memrauder.Field("layer", 0xA0, memrauder.Uint8[Layer](), func(e *EntityReduced, v Layer) { e.Layer = v }),
	}
}

func (EntityReduced) Layout() memrauder.Layout[EntityReduced] {
	return memrauder.Layout[EntityReduced]{Fields: entityReducedFields()}
}

// TypeID returns the entity database id, zero if the entry is unknown.
func (e EntityReduced) TypeID() EntityType {
	if e.Type == nil {
		return 0
	}
	return e.Type.ID
}

// Entity is the base class of everything in a level.
type Entity struct {
	EntityReduced
	// Overlay is the entity this one is attached to, for example the
	// player holding it.
	Overlay memrauder.PolyPointer[EntityReduced]
}

func entityFields() []memrauder.FieldSpec[Entity] {
	return append(
		memrauder.Embed(func(e *Entity) *EntityReduced { return &e.EntityReduced }, entityReducedFields()),
		memrauder.Field("overlay", 0x10, memrauder.Poly(memrauder.StructOf[EntityReduced]()), func(e *Entity, v memrauder.PolyPointer[EntityReduced]) { e.Overlay = v }),
	)
}

func (Entity) Layout() memrauder.Layout[Entity] {
	return memrauder.Layout[Entity]{Fields: entityFields()}
}

// Movable is an entity that moves on its own or can be moved.
type Movable struct {
	Entity
	IdleCounter uint32
	VelocityX   float32
	VelocityY   float32
	HoldingUID  int32
	State       CharState
	LastState   CharState
	Health      int8
}

func movableFields() []memrauder.FieldSpec[Movable] {
	return append(
		memrauder.Embed(func(m *Movable) *Entity { return &m.Entity }, entityFields()),
		memrauder.Field("idle_counter", 0x100, memrauder.Uint32[uint32](), func(m *Movable, v uint32) { m.IdleCounter = v }),
		memrauder.Field("velocity_x", 0x108, memrauder.Float[float32](), func(m *Movable, v float32) { m.VelocityX = v }),
		memrauder.Field("velocity_y", 0x10C, memrauder.Float[float32](), func(m *Movable, v float32) { m.VelocityY = v }),
		memrauder.Field("holding_uid", 0x110, memrauder.Int32[int32](), func(m *Movable, v int32) { m.HoldingUID = v }),
		memrauder.Field("state", 0x114, memrauder.EnumOf[CharState](memrauder.CTypeUint8), func(m *Movable, v CharState) { m.State = v }),
		memrauder.Field("last_state", 0x115, memrauder.EnumOf[CharState](memrauder.CTypeUint8), func(m *Movable, v CharState) { m.LastState = v }),
		memrauder.Field("health", 0x117, memrauder.Int8[int8](), func(m *Movable, v int8) { m.Health = v }),
	)
}

func (Movable) Layout() memrauder.Layout[Movable] {
	return memrauder.Layout[Movable]{Fields: movableFields()}
}

// Mount is a rideable creature.
type Mount struct {
	Movable
	IsTamed bool
}

func (Mount) Layout() memrauder.Layout[Mount] {
	return memrauder.Layout[Mount]{
		Fields: append(
			memrauder.Embed(func(m *Mount) *Movable { return &m.Movable }, movableFields()),
			memrauder.Field("is_tamed", 0x151, memrauder.Bool(), func(m *Mount, v bool) { m.IsTamed = v }),
		),
	}
}

// Inventory is the per-player run inventory.
type Inventory struct {
	// Money collected in the current level.
	Money               uint32
	Bombs               uint8
	Ropes               uint8
	PoisonTickTimer     int16
	Cursed              bool
	CollectedMoney      []EntityType
	KillsLevel          uint32
	KillsTotal          uint32
	CollectedMoneyTotal uint32
}

const collectedMoneySlots = 512

func (Inventory) Layout() memrauder.Layout[Inventory] {
	return memrauder.Layout[Inventory]{
		Fields: []memrauder.FieldSpec[Inventory]{
			memrauder.Field("money", 0x00, memrauder.Uint32[uint32](), func(i *Inventory, v uint32) { i.Money = v }),
			memrauder.Field("bombs", 0x04, memrauder.Uint8[uint8](), func(i *Inventory, v uint8) { i.Bombs = v }),
			memrauder.Field("ropes", 0x05, memrauder.Uint8[uint8](), func(i *Inventory, v uint8) { i.Ropes = v }),
			memrauder.Field("poison_tick_timer", 0x06, memrauder.Int16[int16](), func(i *Inventory, v int16) { i.PoisonTickTimer = v }),
			memrauder.Field("cursed", 0x08, memrauder.Bool(), func(i *Inventory, v bool) { i.Cursed = v }),
			memrauder.Field("collected_money", 0x20, memrauder.Array(memrauder.Uint32[EntityType](), collectedMoneySlots), func(i *Inventory, v []EntityType) { i.CollectedMoney = v }),
			memrauder.Field("kills_level", 0x1424, memrauder.Uint32[uint32](), func(i *Inventory, v uint32) { i.KillsLevel = v }),
			memrauder.Field("kills_total", 0x1428, memrauder.Uint32[uint32](), func(i *Inventory, v uint32) { i.KillsTotal = v }),
			memrauder.Field("collected_money_total", 0x1520, memrauder.Uint32[uint32](), func(i *Inventory, v uint32) { i.CollectedMoneyTotal = v }),
		},
	}
}

// Player is a Movable controlled by a player.
type Player struct {
	Movable
	Inventory             *Inventory
	LinkedCompanionChild  int32
	LinkedCompanionParent int32
}

func (Player) Layout() memrauder.Layout[Player] {
	return memrauder.Layout[Player]{
		Fields: append(
			memrauder.Embed(func(p *Player) *Movable { return &p.Movable }, movableFields()),
			memrauder.Field("inventory", 0x140, memrauder.Pointer(memrauder.StructOf[Inventory]()), func(p *Player, v *Inventory) { p.Inventory = v }),
			memrauder.Field("linked_companion_child", 0x150, memrauder.Int32[int32](), func(p *Player, v int32) { p.LinkedCompanionChild = v }),
			memrauder.Field("linked_companion_parent", 0x154, memrauder.Int32[int32](), func(p *Player, v int32) { p.LinkedCompanionParent = v }),
		),
	}
}

// Illumination is a light source.
type Illumination struct {
	LightPosX float32
	LightPosY float32
}

func (Illumination) Layout() memrauder.Layout[Illumination] {
	return memrauder.Layout[Illumination]{
		Fields: []memrauder.FieldSpec[Illumination]{
			memrauder.Field("light_pos_x", 0x48, memrauder.Float[float32](), func(i *Illumination, v float32) { i.LightPosX = v }),
			memrauder.Field("light_pos_y", 0x4C, memrauder.Float[float32](), func(i *Illumination, v float32) { i.LightPosY = v }),
		},
	}
}

// LightEmitter is a Movable that carries its own light, like a torch.
type LightEmitter struct {
	Movable
	EmittedLight *Illumination
}

func (LightEmitter) Layout() memrauder.Layout[LightEmitter] {
	return memrauder.Layout[LightEmitter]{
		Fields: append(
			memrauder.Embed(func(l *LightEmitter) *Movable { return &l.Movable }, movableFields()),
			memrauder.Field("emitted_light", 0x130, memrauder.Pointer(memrauder.StructOf[Illumination]()), func(l *LightEmitter, v *Illumination) { l.EmittedLight = v }),
		),
	}
}

// Schemas of the entity types, built once.
var (
	EntitySchema       = memrauder.MustBuild(memrauder.StructOf[Entity]())
	MovableSchema      = memrauder.MustBuild(memrauder.StructOf[Movable]())
	MountSchema        = memrauder.MustBuild(memrauder.StructOf[Mount]())
	PlayerSchema       = memrauder.MustBuild(memrauder.StructOf[Player]())
	LightEmitterSchema = memrauder.MustBuild(memrauder.StructOf[LightEmitter]())
)
