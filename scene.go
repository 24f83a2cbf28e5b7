package rowan

import "fmt"

// defaultMaxEntityID bounds caller-supplied ids unless overridden in Config.
const defaultMaxEntityID = EntityID(1<<20 - 1)

// Config tunes scene storage. The zero value picks defaults.
type Config struct {
	// MaxEntityID is the largest accepted entity id (default 2^20-1).
	// Put past the bound fails with ErrIDTooLarge.
	MaxEntityID EntityID
	// CellSize is the spatial grid cell edge length in world units
	// (default 256).
	CellSize float64
	// MaxGridCells bounds the occupied cells per layer grid (default
	// unbounded). Mutations that would exceed it fail with ErrGridFull and
	// are rolled back.
	MaxGridCells int
}

// Scene owns the visual stores, the per-layer z-order and spatial indexes,
// and the cameras, and renders them through a Backend.
//
// A Scene is single-threaded: all mutation and rendering must happen on one
// goroutine, with the frame boundary as the synchronization point for any
// outside producers.
type Scene struct {
	backend Backend

	layers []layerState
	sorted []Layer // layer traversal order, ascending by Order

	sprites *visualStore[Sprite]
	shapes  *visualStore[Shape]
	texts   *visualStore[Text]

	cameras  []*Camera
	implicit *Camera

	debug bool

	// Per-frame scratch, reused across Render calls.
	queryBuf []EntityID
	visSet   map[EntityID]uint64
	visGen   uint64
}

// NewScene creates a scene over the given backend and layer declaration with
// default storage settings. The layer list is validated once and immutable
// afterwards.
func NewScene(backend Backend, layers []LayerConfig) (*Scene, error) {
	return NewSceneWithConfig(backend, layers, Config{})
}

// NewSceneWithConfig is NewScene with explicit storage tuning.
func NewSceneWithConfig(backend Backend, layers []LayerConfig, cfg Config) (*Scene, error) {
	if backend == nil {
		return nil, fmt.Errorf("rowan: backend must not be nil")
	}
	if err := validateLayers(layers); err != nil {
		return nil, err
	}
	if cfg.MaxEntityID == 0 {
		cfg.MaxEntityID = defaultMaxEntityID
	}

	s := &Scene{
		backend: backend,
		layers:  make([]layerState, len(layers)),
		sorted:  sortLayersByOrder(layers),
		visSet:  make(map[EntityID]uint64),
	}
	for i, lc := range layers {
		s.layers[i] = layerState{
			cfg:     lc,
			visible: !lc.Hidden,
			grid:    newSpatialGrid(cfg.CellSize, cfg.MaxGridCells),
		}
	}
	s.sprites = newVisualStore[Sprite](KindSprite, cfg.MaxEntityID, s.layers)
	s.shapes = newVisualStore[Shape](KindShape, cfg.MaxEntityID, s.layers)
	s.texts = newVisualStore[Text](KindText, cfg.MaxEntityID, s.layers)
	return s, nil
}

// SetDebugMode enables or disables per-frame stats logging to stderr.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	debugEnabled = enabled
}

// --- Cameras ---

// NewCamera creates a camera with the given viewport and adds it to the
// scene. With no explicit cameras the scene renders through one implicit
// full-screen camera.
func (s *Scene) NewCamera(viewport Rect) *Camera {
	cam := newCamera(viewport)
	s.cameras = append(s.cameras, cam)
	return cam
}

// RemoveCamera removes a camera from the scene.
func (s *Scene) RemoveCamera(cam *Camera) {
	for i, c := range s.cameras {
		if c == cam {
			s.cameras = append(s.cameras[:i], s.cameras[i+1:]...)
			return
		}
	}
}

// Cameras returns the scene's camera list. The returned slice MUST NOT be mutated.
func (s *Scene) Cameras() []*Camera {
	return s.cameras
}

// SetCameraLayers restricts the camera at the given index to the masked
// layers, supporting split-screen setups with heterogeneous layer sets.
func (s *Scene) SetCameraLayers(cameraIndex int, layers LayerMask) error {
	if cameraIndex < 0 || cameraIndex >= len(s.cameras) {
		return fmt.Errorf("rowan: camera index %d out of range", cameraIndex)
	}
	s.cameras[cameraIndex].Layers = layers
	return nil
}

// Update advances camera animation (follow, scroll tweens, bounds clamping).
// Call once per frame with the frame delta in seconds.
func (s *Scene) Update(dt float32) {
	for _, cam := range s.cameras {
		cam.Update(dt)
	}
}

// --- Layer visibility ---

// SetLayerVisible toggles a layer globally, for all cameras.
func (s *Scene) SetLayerVisible(layer Layer, visible bool) error {
	if int(layer) >= len(s.layers) {
		return fmt.Errorf("rowan: layer %d out of range", layer)
	}
	s.layers[layer].visible = visible
	return nil
}

// LayerVisible reports the layer's global visibility flag.
func (s *Scene) LayerVisible(layer Layer) bool {
	return int(layer) < len(s.layers) && s.layers[layer].visible
}

// --- Spatial coupling helpers ---

// worldLayer reports whether layer is camera-transformed (and thus
// spatially indexed).
func (s *Scene) worldLayer(layer Layer) bool {
	return int(layer) < len(s.layers) && s.layers[layer].cfg.Space == SpaceWorld
}

// spriteWorldBounds resolves the sprite's untrimmed natural size through the
// backend and returns its world AABB.
func (s *Scene) spriteWorldBounds(desc *Sprite, pos Vec2) Rect {
	var natW, natH float64
	if _, info, ok := s.backend.FindSprite(desc.Name); ok {
		natW, natH = info.Width, info.Height
	}
	return spriteBounds(desc, pos, natW, natH)
}

// --- Generic CRUD plumbing ---
//
// The three per-kind stores share identical composition with the spatial
// grid; these package-level generics hold the fixed mutation sequence
// (identifier table, then z-bucket, then spatial grid) and its rollbacks in
// one place. boundsFn returns the world AABB for indexed kinds and ok=false
// for kinds/layers that are never spatially indexed.

func createVisual[D descriptor](s *Scene, vs *visualStore[D], id EntityID, desc D, pos Vec2,
	boundsFn func(*D, Vec2) (Rect, bool)) error {

	// Validate everything that can fail cheaply before disturbing a live
	// entry: a rejected create must leave any replaced visual exactly where
	// it was.
	layer, _ := desc.placement()
	if err := vs.checkLayer(layer); err != nil {
		return err
	}

	// Snapshot the replaced entry so failures further down can restore it,
	// then clear its grid registration (create rewrites table and bucket).
	var (
		oldDesc    D
		oldPos     Vec2
		oldBounds  Rect
		oldLayer   Layer
		oldIndexed bool
		replacing  bool
	)
	if old := vs.getEntry(id); old != nil {
		replacing = true
		oldDesc, oldPos = old.Desc, old.Pos
		oldLayer, _ = oldDesc.placement()
		oldBounds, oldIndexed = boundsFn(&oldDesc, oldPos)
		if oldIndexed {
			s.layers[oldLayer].grid.remove(id, oldBounds)
		}
	}

	restoreOld := func() {
		if rerr := vs.create(id, oldDesc, oldPos); rerr != nil {
			warnf("create rollback failed for id %d: %v", id, rerr)
			return
		}
		if oldIndexed {
			// The old cells were occupied before this call, so restoring
			// them stays within any capacity bound.
			if rerr := s.layers[oldLayer].grid.insert(id, oldBounds); rerr != nil {
				warnf("create grid rollback failed for id %d: %v", id, rerr)
			}
		}
	}

	if err := vs.create(id, desc, pos); err != nil {
		if replacing {
			restoreOld()
		}
		return err
	}
	if r, ok := boundsFn(&desc, pos); ok {
		if err := s.layers[layer].grid.insert(id, r); err != nil {
			if replacing {
				restoreOld()
			} else {
				vs.destroy(id)
			}
			return err
		}
	}
	return nil
}

func updateVisual[D descriptor](s *Scene, vs *visualStore[D], id EntityID, desc D,
	boundsFn func(*D, Vec2) (Rect, bool)) error {

	e := vs.getEntry(id)
	if e == nil {
		return ErrItemNotFound
	}
	oldDesc := e.Desc
	pos := e.Pos
	oldLayer, _ := oldDesc.placement()
	newLayer, _ := desc.placement()
	oldBounds, oldIndexed := boundsFn(&oldDesc, pos)
	newBounds, newIndexed := boundsFn(&desc, pos)

	if err := vs.update(id, desc); err != nil {
		return err
	}

	switch {
	case oldIndexed && newIndexed && oldLayer == newLayer:
		if err := s.layers[oldLayer].grid.update(id, oldBounds, newBounds); err != nil {
			if rerr := vs.update(id, oldDesc); rerr != nil {
				warnf("update rollback failed for id %d: %v", id, rerr)
			}
			return err
		}
	case oldIndexed && newIndexed:
		s.layers[oldLayer].grid.remove(id, oldBounds)
		if err := s.layers[newLayer].grid.insert(id, newBounds); err != nil {
			if rerr := s.layers[oldLayer].grid.insert(id, oldBounds); rerr != nil {
				warnf("grid rollback failed for id %d: %v", id, rerr)
			}
			if rerr := vs.update(id, oldDesc); rerr != nil {
				warnf("update rollback failed for id %d: %v", id, rerr)
			}
			return err
		}
	case oldIndexed:
		s.layers[oldLayer].grid.remove(id, oldBounds)
	case newIndexed:
		if err := s.layers[newLayer].grid.insert(id, newBounds); err != nil {
			if rerr := vs.update(id, oldDesc); rerr != nil {
				warnf("update rollback failed for id %d: %v", id, rerr)
			}
			return err
		}
	}
	return nil
}

func updateVisualPosition[D descriptor](s *Scene, vs *visualStore[D], id EntityID, pos Vec2,
	boundsFn func(*D, Vec2) (Rect, bool)) error {

	e := vs.getEntry(id)
	if e == nil {
		return ErrItemNotFound
	}
	if oldBounds, ok := boundsFn(&e.Desc, e.Pos); ok {
		newBounds, _ := boundsFn(&e.Desc, pos)
		layer, _ := e.Desc.placement()
		// A failed grid update aborts the whole position change: index
		// consistency wins over applying the new position.
		if err := s.layers[layer].grid.update(id, oldBounds, newBounds); err != nil {
			return err
		}
	}
	vs.updatePosition(id, pos)
	return nil
}

func destroyVisual[D descriptor](s *Scene, vs *visualStore[D], id EntityID,
	boundsFn func(*D, Vec2) (Rect, bool)) bool {

	e := vs.getEntry(id)
	if e == nil {
		return false
	}
	bounds, indexed := boundsFn(&e.Desc, e.Pos)
	layer, _ := e.Desc.placement()
	if !vs.destroy(id) {
		return false
	}
	if indexed {
		s.layers[layer].grid.remove(id, bounds)
	}
	return true
}

// spriteBoundsFn/shapeBoundsFn/textBoundsFn adapt the per-kind bounds
// computation to the generic plumbing. Text is never spatially indexed.

func (s *Scene) spriteBoundsFn(desc *Sprite, pos Vec2) (Rect, bool) {
	if !s.worldLayer(desc.Layer) {
		return Rect{}, false
	}
	return s.spriteWorldBounds(desc, pos), true
}

func (s *Scene) shapeBoundsFn(desc *Shape, pos Vec2) (Rect, bool) {
	if !s.worldLayer(desc.Layer) {
		return Rect{}, false
	}
	return shapeBounds(desc, pos), true
}

func (s *Scene) textBoundsFn(desc *Text, pos Vec2) (Rect, bool) {
	return Rect{}, false
}

// --- Public per-kind API ---

// CreateSprite registers a sprite visual under id, replacing any existing
// sprite with that id.
func (s *Scene) CreateSprite(id EntityID, desc Sprite, pos Vec2) error {
	return createVisual(s, s.sprites, id, desc, pos, s.spriteBoundsFn)
}

// UpdateSprite replaces the descriptor for id. Layer and z-index changes
// relocate the visual atomically; a pure attribute change (tint, scale,
// rotation) is an in-place mutation.
func (s *Scene) UpdateSprite(id EntityID, desc Sprite) error {
	return updateVisual(s, s.sprites, id, desc, s.spriteBoundsFn)
}

// UpdateSpritePosition moves the sprite. On spatial index failure the old
// position is retained and the error returned.
func (s *Scene) UpdateSpritePosition(id EntityID, pos Vec2) error {
	return updateVisualPosition(s, s.sprites, id, pos, s.spriteBoundsFn)
}

// DestroySprite removes the sprite. Reports whether it existed.
func (s *Scene) DestroySprite(id EntityID) bool {
	return destroyVisual(s, s.sprites, id, s.spriteBoundsFn)
}

// GetSprite returns the sprite descriptor for id.
func (s *Scene) GetSprite(id EntityID) (Sprite, bool) {
	if d := s.sprites.get(id); d != nil {
		return *d, true
	}
	return Sprite{}, false
}

// GetSpriteEntry returns the sprite descriptor and position for id.
func (s *Scene) GetSpriteEntry(id EntityID) (Sprite, Vec2, bool) {
	if e := s.sprites.getEntry(id); e != nil {
		return e.Desc, e.Pos, true
	}
	return Sprite{}, Vec2{}, false
}

// CreateShape registers a shape visual under id, replacing any existing
// shape with that id.
func (s *Scene) CreateShape(id EntityID, desc Shape, pos Vec2) error {
	return createVisual(s, s.shapes, id, desc, pos, s.shapeBoundsFn)
}

// UpdateShape replaces the descriptor for id.
func (s *Scene) UpdateShape(id EntityID, desc Shape) error {
	return updateVisual(s, s.shapes, id, desc, s.shapeBoundsFn)
}

// UpdateShapePosition moves the shape. On spatial index failure the old
// position is retained and the error returned.
func (s *Scene) UpdateShapePosition(id EntityID, pos Vec2) error {
	return updateVisualPosition(s, s.shapes, id, pos, s.shapeBoundsFn)
}

// DestroyShape removes the shape. Reports whether it existed.
func (s *Scene) DestroyShape(id EntityID) bool {
	return destroyVisual(s, s.shapes, id, s.shapeBoundsFn)
}

// GetShape returns the shape descriptor for id.
func (s *Scene) GetShape(id EntityID) (Shape, bool) {
	if d := s.shapes.get(id); d != nil {
		return *d, true
	}
	return Shape{}, false
}

// GetShapeEntry returns the shape descriptor and position for id.
func (s *Scene) GetShapeEntry(id EntityID) (Shape, Vec2, bool) {
	if e := s.shapes.getEntry(id); e != nil {
		return e.Desc, e.Pos, true
	}
	return Shape{}, Vec2{}, false
}

// CreateText registers a text visual under id, replacing any existing text
// with that id.
func (s *Scene) CreateText(id EntityID, desc Text, pos Vec2) error {
	return createVisual(s, s.texts, id, desc, pos, s.textBoundsFn)
}

// UpdateText replaces the descriptor for id.
func (s *Scene) UpdateText(id EntityID, desc Text) error {
	return updateVisual(s, s.texts, id, desc, s.textBoundsFn)
}

// UpdateTextPosition moves the text.
func (s *Scene) UpdateTextPosition(id EntityID, pos Vec2) error {
	return updateVisualPosition(s, s.texts, id, pos, s.textBoundsFn)
}

// DestroyText removes the text. Reports whether it existed.
func (s *Scene) DestroyText(id EntityID) bool {
	return destroyVisual(s, s.texts, id, s.textBoundsFn)
}

// GetText returns the text descriptor for id.
func (s *Scene) GetText(id EntityID) (Text, bool) {
	if d := s.texts.get(id); d != nil {
		return *d, true
	}
	return Text{}, false
}

// GetTextEntry returns the text descriptor and position for id.
func (s *Scene) GetTextEntry(id EntityID) (Text, Vec2, bool) {
	if e := s.texts.getEntry(id); e != nil {
		return e.Desc, e.Pos, true
	}
	return Text{}, Vec2{}, false
}

// Counts returns the number of live sprites, shapes, and texts. These
// counts, not the grids' internal totals, are authoritative for capacity
// planning (multi-cell entities are listed once per overlapped cell).
func (s *Scene) Counts() (sprites, shapes, texts int) {
	return s.sprites.table.Len(), s.shapes.table.Len(), s.texts.table.Len()
}
