//go:build !linux

package osthread

func setCurrent(Priority) error {
	return ErrUnsupported
}

// Current returns the nice value of the calling thread.
func Current() (int, error) {
	return 0, ErrUnsupported
}
