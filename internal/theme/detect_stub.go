//go:build !windows && !linux

package theme

// nullDetector always reports light mode and never signals a change.
type nullDetector struct{}

// NewDetector returns a no-op detector on platforms without a system theme
// source.
func NewDetector() Detector {
	return nullDetector{}
}

func (nullDetector) Dark() (bool, error) { return false, nil }

func (nullDetector) Watch(func(dark bool)) (func(), error) {
	return func() {}, nil
}
