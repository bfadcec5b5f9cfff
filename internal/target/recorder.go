package target

import "sync"

// Recorder is an in-memory Target. With a known-id set it rejects everything
// else, the way a loaded model rejects parameters it does not define.
type Recorder struct {
	mu      sync.Mutex
	known   map[string]bool
	current map[string]float64
	frames  []map[string]float64
	keep    int
}

// NewRecorder keeps the last keep committed frames. known may be nil to
// accept every id.
func NewRecorder(known []string, keep int) *Recorder {
	r := &Recorder{
		current: make(map[string]float64),
		keep:    keep,
	}
	if known != nil {
		r.known = make(map[string]bool, len(known))
		for _, id := range known {
			r.known[id] = true
		}
	}
	return r
}

func (r *Recorder) SetParameter(id string, value float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.known != nil && !r.known[id] {
		return ErrUnknownParameter
	}
	r.current[id] = value
	return nil
}

func (r *Recorder) Commit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.keep <= 0 {
		return nil
	}
	frame := make(map[string]float64, len(r.current))
	for id, v := range r.current {
		frame[id] = v
	}
	r.frames = append(r.frames, frame)
	if len(r.frames) > r.keep {
		r.frames = r.frames[len(r.frames)-r.keep:]
	}
	return nil
}

// Value returns the last value written for id.
func (r *Recorder) Value(id string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.current[id]
	return v, ok
}

// Frames returns the retained committed frames, oldest first.
func (r *Recorder) Frames() []map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]map[string]float64, len(r.frames))
	copy(out, r.frames)
	return out
}
