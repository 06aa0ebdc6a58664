package module

import "reflect"

// PortsOf finds a T in m's port set: the set itself or one of its exported struct fields
func PortsOf[T any](m Module) (t T, ok bool) {
	p := m.Ports()
	if p == nil {
		return t, false
	}
	if v, ok2 := p.(T); ok2 {
		return v, true
	}
	rv := reflect.ValueOf(p)
	rt := rv.Type()
	if rt.Kind() == reflect.Pointer && !rv.IsNil() {
		rv, rt = rv.Elem(), rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return t, false
	}
	for i := range rt.NumField() {
		f := rv.Field(i)
		if !rt.Field(i).IsExported() || f.IsZero() {
			continue
		}
		if v, ok2 := f.Interface().(T); ok2 {
			return v, true
		}
	}
	return t, false
}

// MustPortsOf is PortsOf for bootstrap code, where a missing port is a wiring bug
func MustPortsOf[T any](m Module) T {
	if v, ok := PortsOf[T](m); ok {
		return v
	}
	panic("module: requested port not found on module " + m.Name())
}
