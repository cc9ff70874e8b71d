package spel2_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
	"github.com/spelunky-fyi/memrauder/pkg/spel2"
)

func TestStateDecode(t *testing.T) {
	require.Equal(t, 0xA18, spel2.StateSchema.FieldSize())

	img := make(image, 0xA18)
	img.putU32(0x08, uint32(spel2.ScreenCamp))
	img.putU32(0x0C, uint32(spel2.ScreenLevel))
	img.putU32(0x10, 0xffffffff)
	img.putU32(0x38, uint32(spel2.QuestSunChallenge|1))
	img.putU32(0x58, uint32(0xffffff9c)) // -100
	img[0x5C], img[0x5D], img[0x5E] = 1, 1, uint8(spel2.ThemeDwelling)
	img.putU32(0x64, 12345)
	img[0x68], img[0x69], img[0x6A], img[0x6B] = 2, 2, 3, 4
	img[0x74], img[0x75] = uint8(spel2.ThemeJungle), 0
	img[0x76] = 0xff
	img.putU32(0x9F4, uint32(spel2.RecapPacifist|spel2.RecapDied))
	img.putU32(0xA10, uint32(spel2.HudAllowPause|1<<30))
	img.putU32(0xA14, uint32(spel2.PresenceMoonChallenge))

	got, err := memrauder.FromBytes(spel2.StateSchema, img, nil)
	require.NoError(t, err)
	want := spel2.State{
		ScreenLast:     spel2.ScreenCamp,
		Screen:         spel2.ScreenLevel,
		ScreenNext:     spel2.ScreenUnknown,
		QuestFlags:     spel2.QuestSunChallenge | 1,
		WorldStart:     1,
		LevelStart:     1,
		ThemeStart:     spel2.ThemeDwelling,
		TimeTotal:      12345,
		World:          2,
		WorldNext:      2,
		Level:          3,
		LevelNext:      4,
		Theme:          spel2.ThemeJungle,
		ThemeNext:      0,
		WinState:       spel2.WinUnknown,
		PresenceFlags:  spel2.PresenceMoonChallenge,
		RunRecapFlags:  spel2.RecapPacifist | spel2.RecapDied,
		HudFlags:       spel2.HudAllowPause | 1<<30,
		MoneyShopTotal: -100,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
	require.True(t, got.QuestFlags.Has(spel2.QuestSunChallenge))
	require.False(t, got.QuestFlags.Has(spel2.QuestMoonChallenge))
	require.Equal(t, "pacifist|died", got.RunRecapFlags.String())
}

func TestStateRejectsUnknownValues(t *testing.T) {
	img := make(image, 0xA18)
	img.putU32(0x0C, 77)
	_, err := memrauder.FromBytes(spel2.StateSchema, img, nil)
	require.True(t, memrauder.IsKind(err, memrauder.KindScalarConstruction), "got %v", err)

	img = make(image, 0xA18)
	img.putU32(0x9F4, 1<<30)
	_, err = memrauder.FromBytes(spel2.StateSchema, img, nil)
	require.True(t, memrauder.IsKind(err, memrauder.KindScalarConstruction), "got %v", err)
}

func TestEntityMapAddr(t *testing.T) {
	state := spel2.StateAddr(0x40000001000, spel2.DefaultStateOffset)
	require.Equal(t, uint64(0x40000000fa1), state)
	require.Equal(t, uint64(0x400000022a9), spel2.EntityMapAddr(state))
}

func putPlayer(img image, addr, inventory uint64, uid uint32) {
	img.putU64(addr+0x08, 0x100) // entity db entry
	img.putU32(addr+0x38, uid)
	img.putU32(addr+0x40, math.Float32bits(12.5))
	img.putU32(addr+0x44, math.Float32bits(-3))
	img[addr+0xA0] = uint8(spel2.LayerBack)
	img.putU32(addr+0x108, math.Float32bits(0.25))
	img.putU32(addr+0x110, 0xffffffff)
	img[addr+0x114] = uint8(spel2.CharJumping)
	img[addr+0x115] = uint8(spel2.CharStanding)
	img[addr+0x117] = 4
	img.putU64(addr+0x140, inventory)
	img.putU32(addr+0x150, 3)
}

func TestEntityDowncastToPlayer(t *testing.T) {
	img := make(image, 0x4000)
	img.putU32(0x100+0x14, 194) // player entity type id
	const playerAddr, inventoryAddr = 0x400, 0x800
	putPlayer(img, playerAddr, inventoryAddr, 7)
	img.putU32(inventoryAddr, 1500)
	img[inventoryAddr+4], img[inventoryAddr+5] = 4, 2
	img.putU32(inventoryAddr+0x20, 500)
	img.putU32(inventoryAddr+0x1428, 9)

	ctx := memrauder.NewContext(memrauder.BytesReader(img))
	ent, ok, err := memrauder.AtAddr(ctx, spel2.EntitySchema, playerAddr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, spel2.EntityType(194), ent.TypeID())
	require.Equal(t, spel2.LayerBack, ent.Layer)
	require.True(t, ent.Overlay.IsEmpty())
	require.Nil(t, ent.Items)

	p := memrauder.NewPolyPointer(playerAddr, &ent, ctx)
	player, ok, err := memrauder.AsType(p, spel2.PlayerSchema)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(7), player.UID)
	require.Equal(t, float32(12.5), player.PositionX)
	require.Equal(t, float32(0.25), player.VelocityX)
	require.Equal(t, int32(-1), player.HoldingUID)
	require.Equal(t, spel2.CharJumping, player.State)
	require.Equal(t, int8(4), player.Health)
	require.Equal(t, int32(3), player.LinkedCompanionChild)
	require.NotNil(t, player.Inventory)
	require.Equal(t, uint32(1500), player.Inventory.Money)
	require.Equal(t, uint8(2), player.Inventory.Ropes)
	require.Len(t, player.Inventory.CollectedMoney, 512)
	require.Equal(t, spel2.EntityType(500), player.Inventory.CollectedMoney[0])
	require.Equal(t, uint32(9), player.Inventory.KillsTotal)

	mount, ok, err := memrauder.AsType(p, spel2.MountSchema)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, mount.IsTamed)
}

func TestEntityItemsAndOverlay(t *testing.T) {
	img := make(image, 0x1000)
	const holder, held = 0x100, 0x300
	img.putU32(holder+0x38, 1)
	img.putU32(held+0x38, 2)
	img.putU64(held+0x10, holder)
	img.putU64(holder+0x20, 0x600)
	img.putU32(holder+0x28, 2)
	img.putU32(0x600, 2)
	img.putU32(0x604, 5)

	ctx := memrauder.NewContext(memrauder.BytesReader(img))
	ent, ok, err := memrauder.AtAddr(ctx, spel2.EntitySchema, held)
	require.NoError(t, err)
	require.True(t, ok)
	overlay, ok := ent.Overlay.Value()
	require.True(t, ok)
	require.Equal(t, uint32(1), overlay.UID)
	require.Equal(t, []uint32{2, 5}, overlay.Items)

	// A pointee that can not be read keeps the address.
	img.putU64(held+0x10, 0xfffff000)
	ent, _, err = memrauder.AtAddr(ctx, spel2.EntitySchema, held)
	require.NoError(t, err)
	require.Equal(t, uint64(0xfffff000), ent.Overlay.Addr())
	require.False(t, ent.Overlay.Present())
}

func TestLightEmitter(t *testing.T) {
	img := make(image, 0x1000)
	img.putU64(0x130, 0x400)
	img.putU32(0x400+0x48, math.Float32bits(1))
	img.putU32(0x400+0x4C, math.Float32bits(2))

	v, err := memrauder.FromBytes(spel2.LightEmitterSchema, img, memrauder.NewContext(memrauder.BytesReader(img)))
	require.NoError(t, err)
	require.Equal(t, &spel2.Illumination{LightPosX: 1, LightPosY: 2}, v.EmittedLight)
}

func TestEnumStrings(t *testing.T) {
	require.Equal(t, "level", spel2.ScreenLevel.String())
	require.Equal(t, "Screen(99)", spel2.Screen(99).String())
	require.Equal(t, "tide pool", spel2.ThemeTidePool.String())
	require.Equal(t, "Theme(0)", spel2.Theme(0).String())
	require.Equal(t, "jumping", spel2.CharJumping.String())
	require.Equal(t, "CharState(3)", spel2.CharUnknown1.String())
	require.Equal(t, "cosmic ocean", spel2.WinCosmicOcean.String())
	require.Equal(t, "back", spel2.LayerBack.String())
}
