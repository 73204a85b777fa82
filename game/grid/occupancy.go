package grid

import (
	"fmt"
	"math"

	"github.com/zyedidia/generic/mapset"
)

// Key identifies a reserved spot on the grid, formatted "col,row".
type Key string

// CellKey builds the key for integer column and row values.
func CellKey(col, row int) Key {
	return Key(fmt.Sprintf("%d,%d", col, row))
}

// BufferFunc expands a coordinate into the keys it reserves.
type BufferFunc func(c Coordinate) []Key

// PointBuffer reserves only the coordinate's own key.
func PointBuffer(c Coordinate) []Key {
	return []Key{c.Key()}
}

// CornerBuffer reserves the four floor/ceil cells around an intersection
// together with the intersection itself.
func CornerBuffer(c Coordinate) []Key {
	fr, cr := int(math.Floor(c.Row)), int(math.Ceil(c.Row))
	fc, cc := int(math.Floor(c.Col)), int(math.Ceil(c.Col))
	return dedupe([]Key{
		c.Key(),
		CellKey(fc, fr),
		CellKey(cc, fr),
		CellKey(fc, cr),
		CellKey(cc, cr),
	})
}

// NeighborBuffer reserves the coordinate and its four orthogonal neighbours.
func NeighborBuffer(c Coordinate) []Key {
	keys := []Key{c.Key()}
	for _, d := range Directions {
		keys = append(keys, c.Step(d, 1).Key())
	}
	return keys
}

func dedupe(keys []Key) []Key {
	seen := mapset.New[Key]()
	out := keys[:0]
	for _, k := range keys {
		if seen.Has(k) {
			continue
		}
		seen.Put(k)
		out = append(out, k)
	}
	return out
}

// Occupancy tracks reserved keys for a single generation pass.
type Occupancy struct {
	set mapset.Set[Key]
}

// NewOccupancy returns an occupancy with the given keys already reserved.
func NewOccupancy(reserved ...Key) *Occupancy {
	o := &Occupancy{set: mapset.New[Key]()}
	o.Reserve(reserved...)
	return o
}

// Reserve marks keys as taken.
func (o *Occupancy) Reserve(keys ...Key) {
	for _, k := range keys {
		o.set.Put(k)
	}
}

// Has reports whether k is reserved.
func (o *Occupancy) Has(k Key) bool {
	return o.set.Has(k)
}

// Free reports whether none of keys is reserved.
func (o *Occupancy) Free(keys ...Key) bool {
	for _, k := range keys {
		if o.set.Has(k) {
			return false
		}
	}
	return true
}

// Size returns the number of reserved keys.
func (o *Occupancy) Size() int {
	return o.set.Size()
}

// Keys returns the reserved keys in no particular order.
func (o *Occupancy) Keys() []Key {
	keys := make([]Key, 0, o.set.Size())
	o.set.Each(func(k Key) {
		keys = append(keys, k)
	})
	return keys
}
