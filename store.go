package rowan

import "fmt"

// entry pairs a descriptor with its position. Position lives outside the
// descriptor so movement never touches bucket placement unless bounds change.
type entry[D descriptor] struct {
	Desc D
	Pos  Vec2
}

// visualStore is the per-kind CRUD table: a paged sparse set holding the
// canonical (descriptor, position) pairs, coordinated with the per-layer
// z-order buckets. Spatial indexing is composed one level up, in Scene.
type visualStore[D descriptor] struct {
	kind   VisualKind
	table  *PagedSparseSet[entry[D]]
	layers []layerState // shares Scene's backing array; never reallocated
}

func newVisualStore[D descriptor](kind VisualKind, maxID EntityID, layers []layerState) *visualStore[D] {
	return &visualStore[D]{
		kind:   kind,
		table:  NewPagedSparseSet[entry[D]](maxID),
		layers: layers,
	}
}

func (vs *visualStore[D]) checkLayer(layer Layer) error {
	if int(layer) >= len(vs.layers) {
		return fmt.Errorf("rowan: layer %d out of range (scene has %d layers)", layer, len(vs.layers))
	}
	return nil
}

// create stores (desc, pos) for id and places it in its layer's z-bucket.
// An existing entry for id is replaced, not duplicated: its old bucket
// placement is removed first.
func (vs *visualStore[D]) create(id EntityID, desc D, pos Vec2) error {
	layer, z := desc.placement()
	if err := vs.checkLayer(layer); err != nil {
		return err
	}
	item := zItem{ID: id, Kind: vs.kind}
	if old := vs.table.Get(id); old != nil {
		oldLayer, oldZ := old.Desc.placement()
		if !vs.layers[oldLayer].z.remove(item, oldZ) {
			warnf("create: id %d missing from layer %d bucket %d", id, oldLayer, oldZ)
		}
	}
	if err := vs.table.Put(id, entry[D]{Desc: desc, Pos: pos}); err != nil {
		return err
	}
	vs.layers[layer].z.insert(item, z)
	return nil
}

// update replaces the descriptor for id, relocating its z-bucket placement
// when layer or z-index changed. The common case (same layer, same z) is an
// in-place mutation with zero bucket traffic.
//
// On a cross-layer move the insert into the new layer's bucket happens before
// the removal from the old one; if the old placement turns out to be missing
// the insert is rolled back, the inconsistency is logged, and the descriptor
// is left unchanged.
func (vs *visualStore[D]) update(id EntityID, desc D) error {
	e := vs.table.Get(id)
	if e == nil {
		return ErrItemNotFound
	}
	newLayer, newZ := desc.placement()
	if err := vs.checkLayer(newLayer); err != nil {
		return err
	}
	oldLayer, oldZ := e.Desc.placement()
	item := zItem{ID: id, Kind: vs.kind}

	switch {
	case oldLayer != newLayer:
		vs.layers[newLayer].z.insert(item, newZ)
		if !vs.layers[oldLayer].z.remove(item, oldZ) {
			vs.layers[newLayer].z.remove(item, newZ)
			warnf("update: id %d missing from layer %d bucket %d, move aborted", id, oldLayer, oldZ)
			return ErrItemNotFound
		}
	case oldZ != newZ:
		if err := vs.layers[oldLayer].z.changeZ(item, oldZ, newZ); err != nil {
			warnf("update: id %d z move %d -> %d failed: %v", id, oldZ, newZ, err)
			return err
		}
	}
	e.Desc = desc
	return nil
}

// updatePosition mutates the stored position. Reports whether id exists.
func (vs *visualStore[D]) updatePosition(id EntityID, pos Vec2) bool {
	e := vs.table.Get(id)
	if e == nil {
		return false
	}
	e.Pos = pos
	return true
}

// destroy removes id from the table and its z-bucket. Reports whether id
// existed. Removal order is table first, then bucket, matching the fixed
// sub-step order of mutations.
func (vs *visualStore[D]) destroy(id EntityID) bool {
	e := vs.table.Get(id)
	if e == nil {
		return false
	}
	layer, z := e.Desc.placement()
	vs.table.Remove(id)
	if !vs.layers[layer].z.remove(zItem{ID: id, Kind: vs.kind}, z) {
		warnf("destroy: id %d missing from layer %d bucket %d", id, layer, z)
	}
	return true
}

// get returns the descriptor for id, or nil if absent.
func (vs *visualStore[D]) get(id EntityID) *D {
	e := vs.table.Get(id)
	if e == nil {
		return nil
	}
	return &e.Desc
}

// getEntry returns the (descriptor, position) pair for id, or nil if absent.
func (vs *visualStore[D]) getEntry(id EntityID) *entry[D] {
	return vs.table.Get(id)
}
