package spel2

var Lowbias32 = lowbias32

// ProbeAddr runs only the probing lookup.
func (m *UidEntityMap) ProbeAddr(uid uint32) uint64 {
	key, _ := m.hash.key(uid)
	return m.probe(key)
}

// ScanAddr runs only the linear scan.
func (m *UidEntityMap) ScanAddr(uid uint32) uint64 {
	key, _ := m.hash.key(uid)
	return m.scan(key)
}
