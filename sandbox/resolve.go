package sandbox

// Resolve picks the unit's drawing entry point. The first match wins:
// a callable binding named drawDuck, a callable binding named draw, a
// callable default export, then the first callable binding in exposure
// order. It returns nil when the unit exposes nothing callable.
func Resolve(u *Unit) Callable {
	if u == nil {
		return nil
	}
	if c, ok := u.Callable("drawDuck"); ok {
		return c
	}
	if c, ok := u.Callable("draw"); ok {
		return c
	}
	if c, ok := u.Default(); ok {
		return c
	}
	for _, name := range u.names {
		if c, ok := u.Callable(name); ok {
			return c
		}
	}
	return nil
}
