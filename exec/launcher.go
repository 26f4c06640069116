package exec

import (
	"fmt"

	"github.com/notargets/gocca"
)

// KernelLauncher abstracts the device side of execution so plans can be
// exercised against a real device or a recording fake in tests.
type KernelLauncher interface {
	// Launch runs a named kernel with the given geometry and arguments.
	Launch(name string, grid GridParam, args ...interface{}) error
}

// OCCALauncher launches kernels on a gocca device.  Kernels are compiled
// once from source and cached by name.
type OCCALauncher struct {
	Device  *gocca.OCCADevice
	Kernels map[string]*gocca.OCCAKernel
}

// NewOCCALauncher wraps a device.
func NewOCCALauncher(device *gocca.OCCADevice) *OCCALauncher {
	return &OCCALauncher{
		Device:  device,
		Kernels: make(map[string]*gocca.OCCAKernel),
	}
}

// RegisterKernel compiles source and caches the kernel under name.
// Re-registering a name replaces the previous kernel.
func (l *OCCALauncher) RegisterKernel(name, source string) error {
	kernel, err := l.Device.BuildKernelFromString(source, name, nil)
	if err != nil {
		return fmt.Errorf("building kernel %s: %w", name, err)
	}
	if old, ok := l.Kernels[name]; ok {
		old.Free()
	}
	l.Kernels[name] = kernel
	return nil
}

// Launch runs a cached kernel and waits for completion.
func (l *OCCALauncher) Launch(name string, grid GridParam, args ...interface{}) error {
	kernel, ok := l.Kernels[name]
	if !ok {
		return internalf("kernel %s not registered", name)
	}
	if err := kernel.RunWithArgs(args...); err != nil {
		return fmt.Errorf("launching %s %+v: %w", name, grid, err)
	}
	l.Device.Finish()
	return nil
}

// Free releases the cached kernels.
func (l *OCCALauncher) Free() {
	for name, kernel := range l.Kernels {
		kernel.Free()
		delete(l.Kernels, name)
	}
}
