package generator

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/your-org/facelog/internal/models"
)

// Rand is the subset of *rand.Rand the generator draws from. IntN returns a
// uniform value in [0, n).
type Rand interface {
	IntN(n int) int
}

// NewRand returns a PCG-backed source. A zero seed picks a random one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

type CameraSource interface {
	ListCameras(ctx context.Context) ([]models.Camera, error)
}

// PersonSource lists person ids in ascending order.
type PersonSource interface {
	ListPersonIDs(ctx context.Context) ([]int64, error)
}

// PickCamera returns a uniformly random camera.
func PickCamera(ctx context.Context, src CameraSource, rnd Rand) (models.Camera, error) {
	cameras, err := src.ListCameras(ctx)
	if err != nil {
		return models.Camera{}, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if len(cameras) == 0 {
		return models.Camera{}, &DatasetError{Collection: "cameras", Size: 0, Required: 1}
	}
	return cameras[rnd.IntN(len(cameras))], nil
}

// PickPerson flips a fair coin between a known and an unknown detection.
// Known detections pick uniformly among every person except the last one;
// unknown detections borrow the last (highest) id as portrait source.
func PickPerson(ctx context.Context, src PersonSource, rnd Rand) (models.Attribution, error) {
	ids, err := src.ListPersonIDs(ctx)
	if err != nil {
		return models.Attribution{}, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if len(ids) == 0 {
		return models.Attribution{}, &DatasetError{Collection: "persons", Size: 0, Required: 1}
	}

	// 1 means known, 0 unknown
	if rnd.IntN(2) == 1 {
		if len(ids) < 2 {
			return models.Attribution{}, &DatasetError{Collection: "persons", Size: len(ids), Required: 2}
		}
		return models.KnownAttribution(ids[rnd.IntN(len(ids)-1)]), nil
	}
	return models.UnknownAttribution(ids[len(ids)-1]), nil
}
