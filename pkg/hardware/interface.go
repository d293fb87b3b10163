package hardware

import (
	"context"

	"github.com/vart-team/vart/go-controller/pkg/vart"
)

// Interface is an assembled plotter: the motion stack plus the outputs
// around it.
type Interface interface {
	// Start runs the background loops (servo regulation, screen) until ctx
	// is done.
	Start(ctx context.Context)

	Device() *vart.Device

	PlaySound(path string)

	// Shutdown waits for the loops to stop and releases the hardware.
	Shutdown()
}
