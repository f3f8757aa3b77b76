// Package script replays recorded or hand written input against viewer
// engine. Time is synthetic, every run of the same script against the same
// source produces the same frames.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"flipbook/common"
	"flipbook/gesture"
	"flipbook/geometry"
)

// Script is a named list of steps. View and Mode, when present, are applied
// before the first step.
type Script struct {
	Name  string           `yaml:"name"`
	View  *geometry.Size   `yaml:"view,omitempty"`
	Mode  *common.ViewMode `yaml:"mode,omitempty"`
	Steps []Step           `yaml:"steps"`
}

// Point in window coordinates.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Drag is a synthesized press, move and release. Moves are spread evenly
// over Frames frames, one frame when absent.
type Drag struct {
	From   Point                `yaml:"from"`
	To     Point                `yaml:"to"`
	Frames int                  `yaml:"frames"`
	Device common.PointerDevice `yaml:"device"`
}

// Expect checks engine state, nil fields are not checked.
type Expect struct {
	Page     *int               `yaml:"page,omitempty"`
	Info     *string            `yaml:"info,omitempty"`
	Mode     *common.ViewMode   `yaml:"mode,omitempty"`
	Driver   *common.DriverKind `yaml:"driver,omitempty"`
	Zoomed   *bool              `yaml:"zoomed,omitempty"`
	Controls *bool              `yaml:"controls,omitempty"`
	Links    *int               `yaml:"links,omitempty"`
}

// Step holds exactly one action.
type Step struct {
	Pointer  *gesture.PointerEvent `yaml:"pointer,omitempty"`
	Tap      *Point                `yaml:"tap,omitempty"`
	Drag     *Drag                 `yaml:"drag,omitempty"`
	Frames   int                   `yaml:"frames,omitempty"`
	Wait     time.Duration         `yaml:"wait,omitempty"`
	Settle   bool                  `yaml:"settle,omitempty"`
	GoTo     *int                  `yaml:"goto,omitempty"`
	Next     bool                  `yaml:"next,omitempty"`
	Prev     bool                  `yaml:"prev,omitempty"`
	Seek     *float64              `yaml:"seek,omitempty"`
	Mode     *common.ViewMode      `yaml:"mode,omitempty"`
	Resize   *geometry.Size        `yaml:"resize,omitempty"`
	Snapshot string                `yaml:"snapshot,omitempty"`
	Expect   *Expect               `yaml:"expect,omitempty"`
}

// Action returns name of the step action.
func (s *Step) Action() (string, error) {
	var names []string
	add := func(set bool, name string) {
		if set {
			names = append(names, name)
		}
	}
	add(s.Pointer != nil, "pointer")
	add(s.Tap != nil, "tap")
	add(s.Drag != nil, "drag")
	add(s.Frames != 0, "frames")
	add(s.Wait != 0, "wait")
	add(s.Settle, "settle")
	add(s.GoTo != nil, "goto")
	add(s.Next, "next")
	add(s.Prev, "prev")
	add(s.Seek != nil, "seek")
	add(s.Mode != nil, "mode")
	add(s.Resize != nil, "resize")
	add(len(s.Snapshot) > 0, "snapshot")
	add(s.Expect != nil, "expect")

	switch len(names) {
	case 0:
		return "", errors.New("step has no action")
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("step has more than one action: %s", strings.Join(names, ", "))
	}
}

func (s *Step) validate() error {
	action, err := s.Action()
	if err != nil {
		return err
	}
	switch action {
	case "frames":
		if s.Frames < 0 {
			return fmt.Errorf("negative frame count %d", s.Frames)
		}
	case "wait":
		if s.Wait < 0 {
			return fmt.Errorf("negative wait %s", s.Wait)
		}
	case "drag":
		if s.Drag.Frames < 0 {
			return fmt.Errorf("negative drag frame count %d", s.Drag.Frames)
		}
	case "seek":
		if *s.Seek < 0 || *s.Seek > 1 {
			return fmt.Errorf("seek progress %g is out of [0, 1]", *s.Seek)
		}
	case "resize":
		if s.Resize.Width <= 0 || s.Resize.Height <= 0 {
			return fmt.Errorf("bad window size %gx%g", s.Resize.Width, s.Resize.Height)
		}
	}
	return nil
}

// Parse decodes and validates script.
func Parse(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	s := &Script{}
	if err := dec.Decode(s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("script is empty")
		}
		return nil, fmt.Errorf("unable to decode script: %w", err)
	}
	if s.View != nil && (s.View.Width <= 0 || s.View.Height <= 0) {
		return nil, fmt.Errorf("bad window size %gx%g", s.View.Width, s.View.Height)
	}
	for i := range s.Steps {
		if err := s.Steps[i].validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return s, nil
}

// Load reads script from file, script name defaults to file name.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read script: %w", err)
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("script '%s': %w", path, err)
	}
	return s, nil
}
