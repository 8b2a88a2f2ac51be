package render

import (
	"fmt"

	"golang.org/x/image/draw"
)

// Kernel names an interpolation used to synthesize sub-cell resolution.
type Kernel string

const (
	KernelNearest        Kernel = "nearest"
	KernelApproxBilinear Kernel = "approx-bilinear"
	KernelBilinear       Kernel = "bilinear"
	KernelCatmullRom     Kernel = "catmullrom"
)

var kernels = map[Kernel]draw.Interpolator{
	KernelNearest:        draw.NearestNeighbor,
	KernelApproxBilinear: draw.ApproxBiLinear,
	KernelBilinear:       draw.BiLinear,
	KernelCatmullRom:     draw.CatmullRom,
}

// Kernels lists the supported kernel names.
func Kernels() []Kernel {
	return []Kernel{KernelNearest, KernelApproxBilinear, KernelBilinear, KernelCatmullRom}
}

func (k Kernel) Valid() bool {
	_, ok := kernels[k]
	return ok
}

func (k Kernel) interpolator() (draw.Interpolator, error) {
	interp, ok := kernels[k]
	if !ok {
		return nil, fmt.Errorf("render: unknown blur kernel %q (available: %v)", k, Kernels())
	}
	return interp, nil
}

// Blur upsamples the normalized grid by Factor with Kernel before colors are
// applied, so neighbouring cells blend smoothly.
type Blur struct {
	Enabled bool
	Kernel  Kernel
	Factor  int
}

func (b Blur) factor() int {
	if !b.Enabled || b.Factor < 1 {
		return 1
	}
	return b.Factor
}
