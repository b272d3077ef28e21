package monocurl

import "math"

// installPrelude declares the constants, scene variables and natives every
// slide can see.
func (e *Engine) installPrelude() error {
	start := len(e.symbols.entries)

	constants := []struct {
		name  string
		value Value
	}{
		{"PI", NewDouble(math.Pi)},
		{"TAU", NewDouble(2 * math.Pi)},
		{"E", NewDouble(math.E)},
		{"ORIGIN", numbersValue([]float64{0, 0, 0})},
		{"RIGHT", numbersValue([]float64{1, 0, 0})},
		{"UP", numbersValue([]float64{0, 1, 0})},
	}
	for _, c := range constants {
		if err := e.DefineConstant(c.name, c.value); err != nil {
			return err
		}
	}
	camera, err := e.exec.cameraValue(DefaultCamera)
	if err != nil {
		return err
	}
	if err := e.DefineVariable("camera", camera); err != nil {
		return err
	}
	if err := e.DefineVariable("background", numbersValue(DefaultBackground[:])); err != nil {
		return err
	}
	for _, spec := range builtinNatives {
		if err := e.RegisterNative(spec.name, spec.params, spec.arity, spec.fn); err != nil {
			return err
		}
	}

	for _, s := range e.symbols.entries[start:] {
		s.prelude = true
	}
	e.preludeMark = e.symbols.mark()
	return nil
}

func (exec *Execution) cameraValue(c Camera) (Value, error) {
	m := newMap(8)
	fields := []struct {
		key   string
		value Value
	}{
		{"near", NewDouble(c.Near)},
		{"far", NewDouble(c.Far)},
		{"origin", numbersValue(c.Origin[:])},
		{"forward", numbersValue(c.Forward[:])},
		{"up", numbersValue(c.Up[:])},
	}
	for _, f := range fields {
		if err := exec.mapSet(m, NewString(f.key), f.value); err != nil {
			return Value{}, err
		}
	}
	return NewMap(m), nil
}
