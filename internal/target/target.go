// Package target adapts composed frames to a concrete renderer's parameter
// ids.
package target

import (
	"errors"
	"fmt"
	"sync"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownParameter = errors.New("unknown parameter id")
	ErrNotConnected     = errors.New("render target not connected")
)

// Target is the renderer side: it accepts one parameter write at a time
// and returns ErrUnknownParameter for ids it does not have.
type Target interface {
	SetParameter(id string, value float64) error
}

// Committer is implemented by targets that batch writes and flush once per
// frame.
type Committer interface {
	Commit() error
}

// IDTable maps engine parameters to renderer ids.
type IDTable map[avatar2d.Param]string

// CubismIDs is the standard Live2D Cubism parameter naming.
func CubismIDs() IDTable {
	return IDTable{
		avatar2d.HeadAngleX: "ParamAngleX",
		avatar2d.HeadAngleY: "ParamAngleY",
		avatar2d.HeadAngleZ: "ParamAngleZ",
		avatar2d.EyeLOpen:   "ParamEyeLOpen",
		avatar2d.EyeROpen:   "ParamEyeROpen",
		avatar2d.MouthOpen:  "ParamMouthOpenY",
		avatar2d.MouthForm:  "ParamMouthForm",
		avatar2d.BodyAngleX: "ParamBodyAngleX",
		avatar2d.BodyAngleY: "ParamBodyAngleY",
		avatar2d.BodyAngleZ: "ParamBodyAngleZ",
		avatar2d.Breath:     "ParamBreath",
	}
}

// WithOverrides returns a copy of t with ids replaced by name. An empty id
// removes the mapping so the parameter passes through under its own name.
func (t IDTable) WithOverrides(overrides map[string]string) (IDTable, error) {
	out := make(IDTable, len(t))
	for p, id := range t {
		out[p] = id
	}
	for name, id := range overrides {
		p := avatar2d.ParamFromName(name)
		if p < 0 {
			return nil, fmt.Errorf("unknown parameter %q in id overrides", name)
		}
		if id == "" {
			delete(out, p)
			continue
		}
		out[p] = id
	}
	return out, nil
}

// ID returns the renderer id for p, falling back to the engine name.
func (t IDTable) ID(p avatar2d.Param) string {
	if id, ok := t[p]; ok {
		return id
	}
	return p.String()
}

// Adapter implements avatar2d.Applier on top of a Target.
type Adapter struct {
	target Target
	ids    IDTable
	logger zerolog.Logger
	onDrop func(id string)

	mu     sync.Mutex
	warned map[string]bool
}

func NewAdapter(t Target, ids IDTable, logger zerolog.Logger) *Adapter {
	if ids == nil {
		ids = CubismIDs()
	}
	return &Adapter{
		target: t,
		ids:    ids,
		logger: logger.With().Str("component", "target").Logger(),
		warned: make(map[string]bool),
	}
}

// SetDropCallback is called for every parameter the target rejects.
func (a *Adapter) SetDropCallback(fn func(id string)) {
	a.onDrop = fn
}

// Apply writes every key of frame. Rejected ids are skipped for this frame
// only; any other write error is reported after the rest of the frame has
// been written.
func (a *Adapter) Apply(frame avatar2d.Vector) error {
	var firstErr error
	for _, p := range frame.Keys() {
		id := a.ids.ID(p)
		err := a.target.SetParameter(id, frame.Get(p))
		if err == nil {
			continue
		}
		if errors.Is(err, ErrUnknownParameter) {
			a.dropped(id)
			continue
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("set %s: %w", id, err)
		}
	}

	if c, ok := a.target.(Committer); ok {
		if err := c.Commit(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("commit frame: %w", err)
		}
	}
	return firstErr
}

// dropped logs the first rejection of each id at warn, the rest at debug.
func (a *Adapter) dropped(id string) {
	a.mu.Lock()
	first := !a.warned[id]
	a.warned[id] = true
	a.mu.Unlock()

	if first {
		a.logger.Warn().Str("id", id).Msg("Render target rejected parameter, dropping it")
	} else {
		a.logger.Debug().Str("id", id).Msg("Dropped parameter")
	}
	if a.onDrop != nil {
		a.onDrop(id)
	}
}
