package utils

import (
	"fmt"

	"github.com/notargets/gocca"
)

// CreateDevice creates a device for table uploads and kernel launches,
// preferring parallel backends and falling back to Serial.
func CreateDevice() (*gocca.OCCADevice, error) {
	backends := []string{
		`{"mode": "OpenMP"}`,
		`{"mode": "CUDA", "device_id": 0}`,
		`{"mode": "HIP", "device_id": 0}`,
		`{"mode": "Serial"}`,
	}

	var lastErr error
	for _, props := range backends {
		device, err := gocca.NewDevice(props)
		if err == nil {
			return device, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no usable device backend: %w", lastErr)
}

// CreateTestDevice creates a device for testing and panics when none of the
// backends is available.
func CreateTestDevice() *gocca.OCCADevice {
	device, err := CreateDevice()
	if err != nil {
		panic(err)
	}
	fmt.Printf("Created %s Device\n", device.Mode())
	return device
}
