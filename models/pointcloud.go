package models

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/spatial/geom"
	"github.com/aukilabs/spatial/messages"
	"github.com/aukilabs/spatial/splat"
)

// PointCloud is a set of splat centers owned by a participant and depth
// sorted on demand.
type PointCloud struct {
	ID            uint32
	ParticipantID uint32

	mutex   sync.Mutex
	centers []float32
	model   geom.Matrix
	sorter  splat.DepthSorter
	indices []uint32
}

// NewPointCloud returns a point cloud sorting centers with sorter. Centers
// holds x, y, z per point and must match the sorter point count.
func NewPointCloud(id, participantID uint32, centers []float32, model geom.Matrix, sorter splat.DepthSorter) (*PointCloud, error) {
	if len(centers)%3 != 0 {
		return nil, errors.New("point cloud centers are not a multiple of 3").
			WithType(messages.ErrTypeBadRequest).
			WithTag("centers", len(centers))
	}

	if count := len(centers) / 3; count != sorter.Count() {
		return nil, errors.New("point cloud sorter size mismatch").
			WithTag("points", count).
			WithTag("sorter_points", sorter.Count())
	}

	return &PointCloud{
		ID:            id,
		ParticipantID: participantID,
		centers:       centers,
		model:         model,
		sorter:        sorter,
	}, nil
}

func (pc *PointCloud) Count() int {
	return pc.sorter.Count()
}

func (pc *PointCloud) Model() geom.Matrix {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	return pc.model
}

func (pc *PointCloud) SetModel(m geom.Matrix) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	pc.model = m
}

// Sort depth sorts the cloud as seen from camera and returns a copy of the
// sorted raw or quad indices.
func (pc *PointCloud) Sort(camera geom.Matrix, raw bool) []uint32 {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	size := splat.QuadIndexCount(pc.sorter.Count())
	if raw {
		size = pc.sorter.Count()
	}

	if cap(pc.indices) < size {
		pc.indices = make([]uint32, size)
	}
	pc.indices = pc.indices[:size]

	if raw {
		pc.sorter.SortRaw(pc.centers, pc.model, camera, pc.indices)
	} else {
		pc.sorter.Sort(pc.centers, pc.model, camera, pc.indices)
	}

	indices := make([]uint32, size)
	copy(indices, pc.indices)
	return indices
}

func (pc *PointCloud) State() messages.PointCloudState {
	return messages.PointCloudState{
		ID:            pc.ID,
		ParticipantID: pc.ParticipantID,
		Count:         pc.Count(),
	}
}
