package kernel

import (
	"github.com/pkg/errors"

	"github.com/ryemyster/shaleyeah-toolkernel/registry"
)

// Initialize rebuilds the kernel's Registry from serverConfigs (a
// servers.yaml-shaped document). It is idempotent: calling Initialize twice
// with the same bytes is equivalent to calling it once, since Registry is a
// pure function of its input.
func (k *Kernel) Initialize(serverConfigs []byte) error {
	reg, err := registry.New(serverConfigs)
	if err != nil {
		return errors.Wrap(err, "kernel: initialize")
	}
	k.Registry = reg
	return nil
}
