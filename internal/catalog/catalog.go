// Package catalog holds the emotion table: what each recognized emotion
// looks like and how long it plays. The table is data; adding an emotion
// never touches the engine.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"gopkg.in/yaml.v3"
)

const NeutralName = "neutral"

// aliases map alternate trigger symbols onto catalog names.
var aliases = map[string]string{
	"idle": NeutralName,
}

// Entry is the on-disk form of one emotion.
type Entry struct {
	Motion     string             `yaml:"motion"`
	Transition string             `yaml:"transition"`
	Hold       string             `yaml:"hold,omitempty"`
	Easing     string             `yaml:"easing,omitempty"`
	Target     map[string]float64 `yaml:"target"`
}

// File is the on-disk catalog document.
type File struct {
	Emotions map[string]Entry `yaml:"emotions"`
}

var defaults = map[string]Entry{
	NeutralName: {
		Motion:     "Idle",
		Transition: "300ms",
		Target:     map[string]float64{"mouthForm": 0, "mouthOpen": 0, "eyeLOpen": 1, "eyeROpen": 1, "headAngleZ": 0},
	},
	"happy": {
		Motion:     "Happy",
		Transition: "200ms",
		Hold:       "1500ms",
		Target:     map[string]float64{"mouthForm": 0.4, "eyeLOpen": 1.15, "eyeROpen": 1.15},
	},
	"sad": {
		Motion:     "Sad",
		Transition: "400ms",
		Hold:       "2500ms",
		Target:     map[string]float64{"mouthForm": -0.6, "eyeLOpen": 0.7, "eyeROpen": 0.7, "headAngleY": -8, "bodyAngleY": -3},
	},
	"angry": {
		Motion:     "Angry",
		Transition: "250ms",
		Hold:       "2000ms",
		Target:     map[string]float64{"mouthForm": -0.8, "eyeLOpen": 0.85, "eyeROpen": 0.85, "headAngleY": -4, "bodyAngleX": 3},
	},
	"think": {
		Motion:     "Think",
		Transition: "350ms",
		Hold:       "3000ms",
		Easing:     "easeInOutCubic",
		Target:     map[string]float64{"headAngleX": 10, "headAngleY": 6, "eyeLOpen": 0.9, "eyeROpen": 0.9, "mouthForm": -0.1},
	},
	"surprise": {
		Motion:     "Surprise",
		Transition: "150ms",
		Hold:       "1200ms",
		Target:     map[string]float64{"eyeLOpen": 1.3, "eyeROpen": 1.3, "mouthOpen": 0.6, "headAngleY": 5},
	},
	"awkward": {
		Motion:     "Awkward",
		Transition: "300ms",
		Hold:       "2000ms",
		Target:     map[string]float64{"mouthForm": -0.3, "headAngleZ": -8, "eyeLOpen": 0.8, "eyeROpen": 0.8},
	},
	"question": {
		Motion:     "Question",
		Transition: "300ms",
		Hold:       "1800ms",
		Target:     map[string]float64{"headAngleZ": 12, "mouthForm": 0.1, "eyeLOpen": 1.1, "eyeROpen": 1.1},
	},
	"curious": {
		Motion:     "Curious",
		Transition: "300ms",
		Hold:       "2000ms",
		Easing:     "spring",
		Target:     map[string]float64{"headAngleX": -6, "headAngleZ": 6, "eyeLOpen": 1.2, "eyeROpen": 1.2},
	},
}

// Catalog is a concurrency-safe, replaceable emotion table.
type Catalog struct {
	mu       sync.RWMutex
	emotions map[string]avatar2d.Emotion
	entries  map[string]Entry
}

// Default returns the built-in nine-emotion catalog.
func Default() *Catalog {
	emotions, err := compile(defaults)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in table is invalid: %v", err))
	}
	return &Catalog{emotions: emotions, entries: normalize(defaults)}
}

// Load returns the built-in catalog with the entries of the YAML file at
// path layered on top.
func Load(path string) (*Catalog, error) {
	c := Default()
	if err := c.ReloadFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// ReloadFile re-reads path. On any error the current table is kept.
func (c *Catalog) ReloadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse catalog %s: %w", path, err)
	}

	entries := normalize(defaults)
	for name, en := range normalize(f.Emotions) {
		entries[name] = en
	}
	emotions, err := compile(entries)
	if err != nil {
		return fmt.Errorf("parse catalog %s: %w", path, err)
	}

	c.mu.Lock()
	c.emotions = emotions
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Parse decodes a catalog document.
func Parse(data []byte) (map[string]avatar2d.Emotion, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return compile(f.Emotions)
}

// Lookup implements avatar2d.EmotionSource. Names are case-insensitive.
func (c *Catalog) Lookup(name string) (avatar2d.Emotion, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.emotions[key]
	return e, ok
}

// Names returns the catalog's emotion names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.emotions))
	for name := range c.emotions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.emotions)
}

// Marshal encodes the current table as a catalog document.
func (c *Catalog) Marshal() ([]byte, error) {
	c.mu.RLock()
	f := File{Emotions: make(map[string]Entry, len(c.entries))}
	for name, en := range c.entries {
		f.Emotions[name] = en
	}
	c.mu.RUnlock()
	return yaml.Marshal(f)
}

func normalize(entries map[string]Entry) map[string]Entry {
	out := make(map[string]Entry, len(entries))
	for name, en := range entries {
		out[strings.ToLower(strings.TrimSpace(name))] = en
	}
	return out
}

func compile(entries map[string]Entry) (map[string]avatar2d.Emotion, error) {
	out := make(map[string]avatar2d.Emotion, len(entries))
	for rawName, entry := range entries {
		name := strings.ToLower(strings.TrimSpace(rawName))
		e, err := entry.compile(name)
		if err != nil {
			return nil, fmt.Errorf("emotion %q: %w", rawName, err)
		}
		out[name] = e
	}
	return out, nil
}

func (en Entry) compile(name string) (avatar2d.Emotion, error) {
	if name == "" {
		return avatar2d.Emotion{}, fmt.Errorf("empty name")
	}
	transition, err := parseDuration(en.Transition)
	if err != nil {
		return avatar2d.Emotion{}, fmt.Errorf("transition: %w", err)
	}
	hold, err := parseDuration(en.Hold)
	if err != nil {
		return avatar2d.Emotion{}, fmt.Errorf("hold: %w", err)
	}
	easing, err := avatar2d.EasingByName(en.Easing)
	if err != nil {
		return avatar2d.Emotion{}, err
	}
	target, err := avatar2d.VectorFromMap(en.Target)
	if err != nil {
		return avatar2d.Emotion{}, err
	}
	if target.Len() == 0 {
		return avatar2d.Emotion{}, fmt.Errorf("empty target")
	}

	motion := en.Motion
	if motion == "" {
		motion = name
	}
	return avatar2d.Emotion{
		Name:       name,
		Motion:     motion,
		Target:     target,
		Transition: transition,
		Hold:       hold,
		Easing:     easing,
		Neutral:    name == NeutralName,
	}, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}
