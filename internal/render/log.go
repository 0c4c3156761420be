package render

import (
	"go.uber.org/zap"
)

// LogRenderer is a headless Renderer that logs a frame summary every
// Every frames. The demo driver uses it in place of a GPU backend.
type LogRenderer struct {
	log    *zap.Logger
	every  int
	frames int
	meshes map[string]int
}

func NewLogRenderer(log *zap.Logger, every int) *LogRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	if every <= 0 {
		every = 1
	}
	return &LogRenderer{log: log, every: every, meshes: make(map[string]int)}
}

func (r *LogRenderer) Draw(view View, instances []Instance) error {
	r.frames++
	if r.frames%r.every != 0 {
		return nil
	}
	clear(r.meshes)
	for i := range instances {
		r.meshes[instances[i].Mesh]++
	}
	r.log.Info("frame",
		zap.Int("frame", r.frames),
		zap.Int("instances", len(instances)),
		zap.Any("meshes", r.meshes),
		zap.Float64s("eye", []float64{view.Eye.X, view.Eye.Y, view.Eye.Z}))
	return nil
}

// Frames returns how many frames were drawn.
func (r *LogRenderer) Frames() int { return r.frames }
