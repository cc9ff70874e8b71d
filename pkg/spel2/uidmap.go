package spel2

import (
	"fmt"
	"math"

	"github.com/spelunky-fyi/memrauder/pkg/logflags"
	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
)

// KeyHash selects how the game turns an entity uid into the key stored in
// the entity table.
type KeyHash uint8

const (
	// KeyIdentity stores uid+1, leaving 0 free to mark empty slots.
	KeyIdentity KeyHash = iota
	// KeyLowbias32 stores lowbias32(uid+1), as game version 1.25.2 does.
	KeyLowbias32
)

func (h KeyHash) String() string {
	switch h {
	case KeyIdentity:
		return "identity"
	case KeyLowbias32:
		return "lowbias32"
	}
	return fmt.Sprintf("KeyHash(%d)", uint8(h))
}

// ParseKeyHash parses the name of a KeyHash, as used in configuration
// files.
func ParseKeyHash(s string) (KeyHash, error) {
	switch s {
	case "", "identity":
		return KeyIdentity, nil
	case "lowbias32":
		return KeyLowbias32, nil
	}
	return KeyIdentity, fmt.Errorf("unknown uid hash %q", s)
}

// key returns the table key of uid. The second result is false for the
// one uid whose key would wrap to 0, the empty slot marker.
func (h KeyHash) key(uid uint32) (uint32, bool) {
	if uid == math.MaxUint32 {
		return 0, false
	}
	if h == KeyLowbias32 {
		return lowbias32(uid + 1), true
	}
	return uid + 1, true
}

// lowbias32 is the integer hash from github.com/skeeto/hash-prospector.
func lowbias32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

type tableMeta struct {
	Mask     uint64
	TablePtr uint64
}

func (tableMeta) Layout() memrauder.Layout[tableMeta] {
	return memrauder.Layout[tableMeta]{
		Fields: []memrauder.FieldSpec[tableMeta]{
			memrauder.Field("mask", 0x0, memrauder.Uint64[uint64](), func(m *tableMeta, v uint64) { m.Mask = v }),
			memrauder.Field("table_ptr", 0x8, memrauder.VoidP[uint64](), func(m *tableMeta, v uint64) { m.TablePtr = v }),
		},
	}
}

// tableEntry is a slot of the table. The entity address is kept as a plain
// address so the entity is only read once the right slot is found.
type tableEntry struct {
	HashedKey  uint32
	EntityAddr uint64
}

const tableEntrySize = 16

// maxTableMask bounds the table to 1<<28 slots (4GiB) even when the vector
// limit is disabled.
const maxTableMask = 1<<28 - 1

func (tableEntry) Layout() memrauder.Layout[tableEntry] {
	return memrauder.Layout[tableEntry]{
		Fields: []memrauder.FieldSpec[tableEntry]{
			memrauder.Field("hashed_key", 0x0, memrauder.Uint32[uint32](), func(e *tableEntry, v uint32) { e.HashedKey = v }),
			memrauder.Field("entity_addr", 0x8, memrauder.VoidP[uint64](), func(e *tableEntry, v uint64) { e.EntityAddr = v }),
		},
		ElementSize: tableEntrySize,
	}
}

// UidEntityMap resolves entity uids through the game's robin-hood hash
// table.
//
// Every lookup runs both the probe the table is designed for and a linear
// scan of the whole table. When they disagree a warning is logged and the
// scan wins.
type UidEntityMap struct {
	path   memrauder.FieldPath
	meta   tableMeta
	hash   KeyHash
	entry  memrauder.MemType[tableEntry]
	entity memrauder.MemType[Entity]
	ctx    *memrauder.Context
	log    logflags.Logger
}

// Len returns the number of slots of the table.
func (m *UidEntityMap) Len() uint64 { return m.meta.Mask + 1 }

// Get returns the entity with the given uid. Missing entities, and entities
// that can not be read, are reported as the empty PolyPointer.
func (m *UidEntityMap) Get(uid uint32) memrauder.PolyPointer[Entity] {
	empty := memrauder.EmptyPoly[Entity](m.ctx)
	if m.meta.TablePtr == 0 {
		return empty
	}

	key, ok := m.hash.key(uid)
	if !ok {
		return empty
	}
	fast := m.probe(key)
	addr := m.scan(key)
	if fast != addr {
		m.log.WithFields(logflags.Fields{"uid": uid, "fast": fmt.Sprintf("%#x", fast), "slow": fmt.Sprintf("%#x", addr)}).
			Warn("entity table probe disagrees with linear scan, using scan result")
	}
	if logflags.UidMap() {
		m.log.Debugf("uid %d: key %#x at %#x", uid, key, addr)
	}
	if addr == 0 {
		return empty
	}

	entity, ok, err := memrauder.AtAddr(m.ctx, m.entity, addr)
	if err != nil || !ok {
		m.log.WithError(err).Debugf("could not read entity %d at %#x", uid, addr)
		return empty
	}
	if entity.UID != uid {
		m.log.Warnf("entity lookup failed with ID mismatch. Expected %d, got %d", uid, entity.UID)
	}
	return memrauder.NewPolyPointer(addr, &entity, m.ctx)
}

func (m *UidEntityMap) entryAt(ctx *memrauder.Context, index uint64) (tableEntry, bool) {
	entry, ok, err := memrauder.AtAddr(ctx, m.entry, m.meta.TablePtr+index*tableEntrySize)
	if err != nil {
		return tableEntry{}, false
	}
	return entry, ok
}

// probe walks the slots starting at the key's home slot. The walk stops at
// an empty slot or at an entry closer to its own home slot than the key
// would be, and after visiting every slot once.
func (m *UidEntityMap) probe(key uint32) uint64 {
	mask := m.meta.Mask
	index := uint64(key) & mask
	for probes := uint64(0); probes <= mask; probes++ {
		entry, ok := m.entryAt(m.ctx, index)
		if !ok {
			return 0
		}
		if entry.HashedKey == key {
			return entry.EntityAddr
		}
		if entry.HashedKey == 0 {
			// We found an empty entry before our target. It must not exist.
			return 0
		}
		if uint64(key)&mask > uint64(entry.HashedKey)&mask {
			// If the target existed it would have displaced this entry.
			return 0
		}
		index = (index + 1) & mask
	}
	return 0
}

// scan returns the address of the first slot holding key. The table is read
// in one go when possible; otherwise unreadable slots are skipped.
func (m *UidEntityMap) scan(key uint32) uint64 {
	slots := m.meta.Mask + 1
	ctx := m.ctx.WithReader(memrauder.CacheMemory(m.ctx.Reader(), m.meta.TablePtr, int(slots*tableEntrySize)))
	for index := uint64(0); index < slots; index++ {
		entry, ok := m.entryAt(ctx, index)
		if ok && entry.HashedKey == key {
			return entry.EntityAddr
		}
	}
	return 0
}

type uidEntityMapType struct {
	path   memrauder.FieldPath
	hash   KeyHash
	log    logflags.Logger
	meta   memrauder.MemType[tableMeta]
	entry  memrauder.MemType[tableEntry]
	entity memrauder.MemType[Entity]
}

// UidEntityMapOf returns a constructor for the game's uid to entity table.
// Inconsistencies found during lookups are reported to log; a nil log
// reports them to the uidmap log layer.
func UidEntityMapOf(hash KeyHash, log logflags.Logger) memrauder.Deferred[*UidEntityMap] {
	return func(path memrauder.FieldPath) (memrauder.MemType[*UidEntityMap], error) {
		l := log
		if l == nil {
			l = logflags.UidMapLogger()
		}
		meta, err := memrauder.StructOf[tableMeta]()(path)
		if err != nil {
			return nil, err
		}
		entry, err := memrauder.StructOf[tableEntry]()(path.Append("__entry"))
		if err != nil {
			return nil, err
		}
		entity, err := memrauder.StructOf[Entity]()(path.Append("__entity"))
		if err != nil {
			return nil, err
		}
		return &uidEntityMapType{path: path, hash: hash, log: l, meta: meta, entry: entry, entity: entity}, nil
	}
}

func (t *uidEntityMapType) FieldSize() int { return t.meta.FieldSize() }

func (t *uidEntityMapType) ElementSize() int { return t.meta.ElementSize() }

func (t *uidEntityMapType) Alignment() int { return memrauder.PointerSize }

func (t *uidEntityMapType) FromBytes(buf []byte, ctx *memrauder.Context) (*UidEntityMap, error) {
	meta, err := t.meta.FromBytes(buf, ctx)
	if err != nil {
		return nil, err
	}
	if meta.Mask < 1 {
		return nil, memrauder.NewDecodeError(memrauder.KindInvariant, t.path, fmt.Sprintf("invalid mask value %d", meta.Mask), nil)
	}
	if meta.Mask > maxTableMask {
		return nil, memrauder.NewDecodeError(memrauder.KindInvariant, t.path,
			fmt.Sprintf("mask %#x is larger than any entity table (%#x)", meta.Mask, maxTableMask), nil)
	}
	if limit := uint64(ctx.MaxVectorBytes()); limit > 0 && (meta.Mask >= limit/tableEntrySize) {
		return nil, memrauder.NewDecodeError(memrauder.KindInvariant, t.path,
			fmt.Sprintf("mask %#x describes a table larger than the limit of %d bytes", meta.Mask, limit), nil)
	}
	return &UidEntityMap{
		path:   t.path,
		meta:   meta,
		hash:   t.hash,
		entry:  t.entry,
		entity: t.entity,
		ctx:    ctx,
		log:    t.log,
	}, nil
}
