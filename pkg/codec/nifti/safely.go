package nifti

import (
	"fmt"

	hnifti "github.com/henghuang/nifti"
)

// safelyLoadImage consumes panics emitted by the nifti library and turns
// them into errors.
func safelyLoadImage(filename string) (img hnifti.Nifti1Image, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	img.LoadImage(filename, true)

	return
}

// safelyLoadHeader is safelyLoadImage for headers only.
func safelyLoadHeader(filename string) (h hnifti.Nifti1Header, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	h.LoadHeader(filename)

	return
}

// safelyReadValues reads the first time point of an x*y*z image in x-fastest
// order, converting out of range panics to errors.
func safelyReadValues(img *hnifti.Nifti1Image, nx, ny, nz int) (values []float64, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			values = nil
			err = fmt.Errorf("reading voxels: %v", panicErr)
		}
	}()

	values = make([]float64, 0, nx*ny*nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				values = append(values, float64(img.GetAt(x, y, z, 0)))
			}
		}
	}

	return
}
