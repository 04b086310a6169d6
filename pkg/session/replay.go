package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"seismicview/internal/models"
	"seismicview/pkg/eventloop"
	"seismicview/pkg/interaction"
)

// Event is one step of a replay script. Which fields apply depends on Type:
//
//	press, move, release  x, y, button, mods
//	key, keyup            key, text, mods
//	set                   axis, value
//	step                  axis, delta
//	resize                width, height
//	dragmode, reset       (none)
//	wait                  duration
//	tick                  count
type Event struct {
	Type     string        `yaml:"type"`
	X        float64       `yaml:"x,omitempty"`
	Y        float64       `yaml:"y,omitempty"`
	Button   string        `yaml:"button,omitempty"`
	Mods     []string      `yaml:"mods,omitempty"`
	Key      string        `yaml:"key,omitempty"`
	Text     string        `yaml:"text,omitempty"`
	Axis     string        `yaml:"axis,omitempty"`
	Value    float64       `yaml:"value,omitempty"`
	Delta    int           `yaml:"delta,omitempty"`
	Width    int           `yaml:"width,omitempty"`
	Height   int           `yaml:"height,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
	Count    int           `yaml:"count,omitempty"`
}

// Script is a recorded sequence of canvas events.
type Script struct {
	Events []Event `yaml:"events"`
}

// LoadScript reads a YAML replay script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("error parsing script: %w", err)
	}
	return &script, nil
}

// step is a compiled event: either a handler for the loop or a pause taken
// by the driver between posts.
type step struct {
	run   func(s *Session) error
	pause time.Duration
}

func parseButton(name string) (interaction.Button, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return interaction.ButtonNone, nil
	case "primary", "left":
		return interaction.ButtonPrimary, nil
	case "secondary", "right":
		return interaction.ButtonSecondary, nil
	case "middle":
		return interaction.ButtonMiddle, nil
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

func parseMods(names []string) (interaction.Modifiers, error) {
	var mods interaction.Modifiers
	for _, name := range names {
		switch strings.ToLower(name) {
		case "shift":
			mods |= interaction.ModShift
		case "ctrl", "control":
			mods |= interaction.ModCtrl
		case "alt":
			mods |= interaction.ModAlt
		default:
			return 0, fmt.Errorf("unknown modifier %q", name)
		}
	}
	return mods, nil
}

func compile(ev Event) (step, error) {
	mods, err := parseMods(ev.Mods)
	if err != nil {
		return step{}, err
	}

	switch strings.ToLower(ev.Type) {
	case "press", "move", "release":
		button, err := parseButton(ev.Button)
		if err != nil {
			return step{}, err
		}
		pe := interaction.PointerEvent{Pos: r2.Vec{X: ev.X, Y: ev.Y}, Button: button, Modifiers: mods}
		handler := map[string]func(*Session, interaction.PointerEvent){
			"press":   (*Session).PointerPress,
			"move":    (*Session).PointerMove,
			"release": (*Session).PointerRelease,
		}[strings.ToLower(ev.Type)]
		return step{run: func(s *Session) error { handler(s, pe); return nil }}, nil

	case "key", "keyup":
		ke := interaction.KeyEvent{Key: ev.Key, Text: ev.Text, Modifiers: mods}
		if strings.ToLower(ev.Type) == "keyup" {
			return step{run: func(s *Session) error { s.KeyRelease(ke); return nil }}, nil
		}
		return step{run: func(s *Session) error { s.KeyPress(ke); return nil }}, nil

	case "set", "step":
		axis, err := models.ParseAxis(ev.Axis)
		if err != nil {
			return step{}, err
		}
		if strings.ToLower(ev.Type) == "set" {
			return step{run: func(s *Session) error { return s.SetPosition(axis, ev.Value) }}, nil
		}
		return step{run: func(s *Session) error { return s.Step(axis, ev.Delta) }}, nil

	case "resize":
		if ev.Width <= 0 || ev.Height <= 0 {
			return step{}, fmt.Errorf("resize needs a positive size, got %dx%d", ev.Width, ev.Height)
		}
		return step{run: func(s *Session) error { s.Resize(ev.Width, ev.Height); return nil }}, nil

	case "dragmode":
		return step{run: func(s *Session) error { s.ToggleDragMode(); return nil }}, nil

	case "reset":
		return step{run: func(s *Session) error { s.ResetView(); return nil }}, nil

	case "wait":
		return step{pause: ev.Duration}, nil

	case "tick":
		count := max(ev.Count, 1)
		return step{run: func(s *Session) error {
			for i := 0; i < count; i++ {
				s.cam.Tick()
			}
			return nil
		}}, nil
	}
	return step{}, fmt.Errorf("unknown event type %q", ev.Type)
}

// Validate checks every event without running any.
func (sc *Script) Validate() error {
	_, err := sc.compile()
	return err
}

func (sc *Script) compile() ([]step, error) {
	steps := make([]step, 0, len(sc.Events))
	for i, ev := range sc.Events {
		st, err := compile(ev)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		steps = append(steps, st)
	}
	return steps, nil
}

// Replay feeds script through loop into s and returns the final snapshot.
// Every event is checked before the first one is posted; a nil snapshot
// means nothing ran to completion. Replay runs the
// loop itself and stops it on return. Waits happen between posts so timer
// ticks keep flowing. Errors from individual events are collected and
// returned together with the snapshot.
func Replay(ctx context.Context, loop *eventloop.Loop, s *Session, script *Script) (*Snapshot, error) {
	log := logrus.WithField("component", "replay")

	steps, err := script.compile()
	if err != nil {
		return nil, err
	}

	defer loop.Stop()
	runErr := make(chan error, 1)
	go func() {
		err := loop.Run(ctx)
		loop.Stop()
		runErr <- err
	}()

	var errs []error
	for i, st := range steps {
		i, st := i, st
		if st.pause > 0 {
			select {
			case <-time.After(st.pause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}
		if st.run == nil {
			continue
		}
		if !loop.Post(func() {
			if err := st.run(s); err != nil {
				errs = append(errs, fmt.Errorf("event %d: %w", i, err))
			}
		}) {
			return nil, eventloop.ErrStopped
		}
	}

	done := make(chan Snapshot, 1)
	if !loop.Post(func() { done <- s.Snapshot() }) {
		return nil, eventloop.ErrStopped
	}

	var snap Snapshot
	select {
	case snap = <-done:
	case err := <-runErr:
		return nil, err
	}
	loop.Stop()
	<-runErr

	log.WithField("events", len(steps)).Info("Replay finished")
	return &snap, errors.Join(errs...)
}
