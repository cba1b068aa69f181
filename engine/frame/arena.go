package frame

// ConstantAlignment is the offset alignment of every allocation in a ConstantArena.
// It matches the minimum uniform buffer offset alignment of WebGPU.
const ConstantAlignment = 256

// Marshaler is a constant block that can be serialized for upload.
type Marshaler interface {
	Marshal() []byte
}

// ConstantArena is a linear allocator for one frame's constant blocks. It is reset when
// its slot is acquired, so nothing written to it may be referenced after the slot's
// work completes.
type ConstantArena struct {
	buf    []byte
	blocks int
}

// NewConstantArena creates an empty arena.
func NewConstantArena() *ConstantArena {
	return &ConstantArena{buf: make([]byte, 0, 64*ConstantAlignment)}
}

// Push appends a marshaled block at the next aligned offset.
//
// Parameters:
//   - m: the block to serialize
//
// Returns:
//   - int: the byte offset of the block
func (a *ConstantArena) Push(m Marshaler) int {
	data := m.Marshal()
	off := len(a.buf)
	size := (len(data) + ConstantAlignment - 1) / ConstantAlignment * ConstantAlignment
	a.buf = append(a.buf, make([]byte, size)...)
	copy(a.buf[off:], data)
	a.blocks++
	return off
}

// At returns the size bytes at offset.
func (a *ConstantArena) At(offset, size int) []byte {
	return a.buf[offset : offset+size]
}

// Bytes returns the whole arena, ready for a single upload.
func (a *ConstantArena) Bytes() []byte { return a.buf }

// Len returns the number of blocks pushed since the last Reset.
func (a *ConstantArena) Len() int { return a.blocks }

// Reset drops every allocation and keeps the backing memory.
func (a *ConstantArena) Reset() {
	a.buf = a.buf[:0]
	a.blocks = 0
}
