package monocurl

// Camera is the view read from the camera root variable.
type Camera struct {
	Near    float64
	Far     float64
	Origin  [3]float64
	Forward [3]float64
	Up      [3]float64
}

// DefaultCamera is the camera installed by the prelude.
var DefaultCamera = Camera{
	Near:    0.1,
	Far:     100,
	Origin:  [3]float64{0, 0, -4},
	Forward: [3]float64{0, 0, 1},
	Up:      [3]float64{0, 1, 0},
}

// DefaultBackground is the prelude background color.
var DefaultBackground = [4]float64{0, 0, 0, 1}

// ShownMesh is a mesh reachable from a visible tree variable. ID is the
// mesh content hash.
type ShownMesh struct {
	ID   uint64
	Mesh Mesh
}

// Frame is the renderable state after a slide or animation tick.
type Frame struct {
	Slide      int
	Time       float64
	Camera     Camera
	Background [4]float64
	Meshes     []ShownMesh
}

// frameView lists the root slots a frame is read from. Missing slots are
// -1.
type frameView struct {
	trees      []int
	camera     int
	background int
}

func (exec *Execution) frame(view frameView) (Frame, error) {
	f := Frame{Slide: exec.slide, Time: exec.animTime, Camera: DefaultCamera, Background: DefaultBackground}
	if view.camera >= 0 {
		cam, err := exec.decodeCamera(exec.stack[view.camera])
		if err != nil {
			return Frame{}, err
		}
		f.Camera = cam
	}
	if view.background >= 0 {
		bg, err := exec.decodeColor(exec.stack[view.background])
		if err != nil {
			return Frame{}, err
		}
		f.Background = bg
	}
	seen := make(map[uint64]bool)
	for _, slot := range view.trees {
		if err := exec.collectMeshes(exec.stack[slot], &f.Meshes, seen); err != nil {
			return Frame{}, err
		}
	}
	return f, nil
}

// collectMeshes walks vectors, maps and functor results for meshes.
func (exec *Execution) collectMeshes(v Value, out *[]ShownMesh, seen map[uint64]bool) error {
	if v.kind == KindUninitialized {
		return nil
	}
	v, err := exec.concrete(v)
	if err != nil {
		return err
	}
	switch v.kind {
	case KindMesh:
		m := v.Mesh()
		id := m.Hash()
		if !seen[id] {
			seen[id] = true
			*out = append(*out, ShownMesh{ID: id, Mesh: m})
		}
	case KindVector:
		for _, elem := range v.Vector().elems {
			if err := exec.collectMeshes(elem, out, seen); err != nil {
				return err
			}
		}
	case KindMap:
		var walkErr error
		v.Map().each(func(_, value Value) bool {
			walkErr = exec.collectMeshes(value, out, seen)
			return walkErr == nil
		})
		return walkErr
	}
	return nil
}

func (exec *Execution) decodeCamera(v Value) (Camera, error) {
	v, err := exec.concrete(v)
	if err != nil {
		return Camera{}, err
	}
	if v.kind != KindMap {
		return Camera{}, exec.errorf("camera must be a map, got %s", v.kind)
	}
	cam := DefaultCamera
	m := v.Map()
	scalar := func(name string, dst *float64) error {
		slot, err := exec.mapGet(m, NewString(name))
		if err != nil || slot == nil {
			return err
		}
		x, err := exec.concrete(*slot)
		if err != nil {
			return err
		}
		if x.kind != KindDouble {
			return exec.errorf("camera %s must be a double", name)
		}
		*dst = x.num
		return nil
	}
	vector := func(name string, dst *[3]float64) error {
		slot, err := exec.mapGet(m, NewString(name))
		if err != nil || slot == nil {
			return err
		}
		p, err := exec.point(*slot)
		if err != nil {
			return exec.errorf("camera %s: %v", name, err)
		}
		*dst = p
		return nil
	}
	if err := scalar("near", &cam.Near); err != nil {
		return Camera{}, err
	}
	if err := scalar("far", &cam.Far); err != nil {
		return Camera{}, err
	}
	if err := vector("origin", &cam.Origin); err != nil {
		return Camera{}, err
	}
	if err := vector("forward", &cam.Forward); err != nil {
		return Camera{}, err
	}
	if err := vector("up", &cam.Up); err != nil {
		return Camera{}, err
	}
	return cam, nil
}

func (exec *Execution) decodeColor(v Value) ([4]float64, error) {
	nums, err := exec.doubles(v)
	if err != nil {
		return [4]float64{}, err
	}
	switch len(nums) {
	case 3:
		return [4]float64{nums[0], nums[1], nums[2], 1}, nil
	case 4:
		return [4]float64{nums[0], nums[1], nums[2], nums[3]}, nil
	default:
		return [4]float64{}, exec.errorf("background must have 3 or 4 components, got %d", len(nums))
	}
}

// doubles converts a vector of doubles into a slice.
func (exec *Execution) doubles(v Value) ([]float64, error) {
	v, err := exec.concrete(v)
	if err != nil {
		return nil, err
	}
	if v.kind != KindVector {
		return nil, exec.errorf("expected a vector of doubles, got %s", v.kind)
	}
	out := make([]float64, len(v.Vector().elems))
	for i, elem := range v.Vector().elems {
		x, err := exec.concrete(elem)
		if err != nil {
			return nil, err
		}
		if x.kind != KindDouble {
			return nil, exec.errorf("expected a vector of doubles, found %s", x.kind)
		}
		out[i] = x.num
	}
	return out, nil
}

// point converts a 2 or 3 component vector into a 3D point.
func (exec *Execution) point(v Value) ([3]float64, error) {
	nums, err := exec.doubles(v)
	if err != nil {
		return [3]float64{}, err
	}
	switch len(nums) {
	case 2:
		return [3]float64{nums[0], nums[1], 0}, nil
	case 3:
		return [3]float64{nums[0], nums[1], nums[2]}, nil
	default:
		return [3]float64{}, exec.errorf("point must have 2 or 3 components, got %d", len(nums))
	}
}
