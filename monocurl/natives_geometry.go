package monocurl

import (
	"fmt"
	"math"
)

func (exec *Execution) vectorPair(fn string, args []Value) ([]float64, []float64, error) {
	a, err := exec.numbersArg(fn, args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := exec.numbersArg(fn, args[1])
	if err != nil {
		return nil, nil, err
	}
	if len(a) != len(b) {
		return nil, nil, fmt.Errorf("%s expects vectors of equal length, got %d and %d", fn, len(a), len(b))
	}
	return a, b, nil
}

func dot(a, b []float64) float64 {
	total := 0.0
	for i := range a {
		total += a[i] * b[i]
	}
	return total
}

func builtinDot(exec *Execution, args []Value) (Value, error) {
	a, b, err := exec.vectorPair("dot", args)
	if err != nil {
		return Value{}, err
	}
	return NewDouble(dot(a, b)), nil
}

func builtinCross(exec *Execution, args []Value) (Value, error) {
	a, b, err := exec.vectorPair("cross", args)
	if err != nil {
		return Value{}, err
	}
	if len(a) != 3 {
		return Value{}, fmt.Errorf("cross expects 3 component vectors, got %d", len(a))
	}
	return numbersValue([]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}), nil
}

func builtinNorm(exec *Execution, args []Value) (Value, error) {
	a, err := exec.numbersArg("norm", args[0])
	if err != nil {
		return Value{}, err
	}
	return NewDouble(math.Sqrt(dot(a, a))), nil
}

func builtinNormalize(exec *Execution, args []Value) (Value, error) {
	a, err := exec.numbersArg("normalize", args[0])
	if err != nil {
		return Value{}, err
	}
	n := math.Sqrt(dot(a, a))
	if n == 0 {
		return Value{}, fmt.Errorf("normalize of a zero vector")
	}
	for i := range a {
		a[i] /= n
	}
	return numbersValue(a), nil
}

// builtinMix interpolates between two numbers or equally shaped vectors.
func builtinMix(exec *Execution, args []Value) (Value, error) {
	t, err := exec.numberArg("mix", args[2])
	if err != nil {
		return Value{}, err
	}
	return exec.interpolate(args[0], args[1], t)
}

// interpolate computes a + (b - a) * t with the language's arithmetic.
func (exec *Execution) interpolate(a, b Value, t float64) (Value, error) {
	diff, err := exec.arith(opSubtract, b, a)
	if err != nil {
		return Value{}, err
	}
	step, err := exec.arith(opMultiply, diff, NewDouble(t))
	if err != nil {
		return Value{}, err
	}
	return exec.arith(opAdd, a, step)
}

// builtinPolygon builds a mesh from a vector of points, optionally tagged:
// polygon(points) or polygon(points, tag).
func builtinPolygon(exec *Execution, args []Value) (Value, error) {
	if len(args) == 0 || len(args) > 2 {
		return Value{}, fmt.Errorf("polygon expects points and an optional tag")
	}
	vec, err := exec.vectorArg("polygon", args[0])
	if err != nil {
		return Value{}, err
	}
	if len(vec.elems) < 2 {
		return Value{}, fmt.Errorf("polygon needs at least 2 points, got %d", len(vec.elems))
	}
	points := make([][3]float64, len(vec.elems))
	for i, elem := range vec.elems {
		if points[i], err = exec.point(elem); err != nil {
			return Value{}, err
		}
	}
	var tag []float64
	if len(args) == 2 {
		v, err := exec.concrete(args[1])
		if err != nil {
			return Value{}, err
		}
		if v.kind == KindDouble {
			tag = []float64{v.num}
		} else if tag, err = exec.numbersArg("polygon", v); err != nil {
			return Value{}, err
		}
	}
	return NewMesh(NewPolyMesh(points, tag)), nil
}

func asPolyMesh(m Mesh) *PolyMesh {
	if pm, ok := m.(*PolyMesh); ok {
		return pm
	}
	return NewPolyMesh(m.Points(), m.Tag())
}

func builtinTranslate(exec *Execution, args []Value) (Value, error) {
	m, err := exec.meshArg("translate", args[0])
	if err != nil {
		return Value{}, err
	}
	delta, err := exec.point(args[1])
	if err != nil {
		return Value{}, err
	}
	return NewMesh(asPolyMesh(m).transform(func(p [3]float64) [3]float64 {
		return [3]float64{p[0] + delta[0], p[1] + delta[1], p[2] + delta[2]}
	})), nil
}

// builtinScale scales a mesh about the origin by a factor or a per-axis
// vector.
func builtinScale(exec *Execution, args []Value) (Value, error) {
	m, err := exec.meshArg("scale", args[0])
	if err != nil {
		return Value{}, err
	}
	by, err := exec.concrete(args[1])
	if err != nil {
		return Value{}, err
	}
	var factor [3]float64
	if by.kind == KindDouble {
		factor = [3]float64{by.num, by.num, by.num}
	} else {
		f, err := exec.point(by)
		if err != nil {
			return Value{}, err
		}
		factor = f
		if len(by.Vector().elems) == 2 {
			factor[2] = 1
		}
	}
	return NewMesh(asPolyMesh(m).transform(func(p [3]float64) [3]float64 {
		return [3]float64{p[0] * factor[0], p[1] * factor[1], p[2] * factor[2]}
	})), nil
}

func builtinMeshPoints(exec *Execution, args []Value) (Value, error) {
	m, err := exec.meshArg("mesh_points", args[0])
	if err != nil {
		return Value{}, err
	}
	points := m.Points()
	out := make([]Value, len(points))
	for i, p := range points {
		out[i] = numbersValue(p[:])
	}
	return NewVector(out), nil
}

func builtinMeshTag(exec *Execution, args []Value) (Value, error) {
	m, err := exec.meshArg("mesh_tag", args[0])
	if err != nil {
		return Value{}, err
	}
	return numbersValue(m.Tag()), nil
}
