package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/disintegration/imaging"
	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"flipbook/common"
	"flipbook/compose"
	"flipbook/config"
	"flipbook/engine"
	"flipbook/gesture"
	"flipbook/geometry"
	"flipbook/pagination"
)

// Clock is synthetic time source for engine, it only moves when runner
// advances it.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SnapshotValues are available to snapshot name template.
type SnapshotValues struct {
	Context string
	Index   int
	Name    string
	Frame   int
	Page    int
}

// Runner executes scripts against single engine. Engine must be created with
// runner clock (engine.WithClock(clock.Now)).
type Runner struct {
	cfg       *config.ReplayConfig
	eng       *engine.Engine
	clock     *Clock
	renderer  *compose.Renderer
	nameTmpl  *template.Template
	dst       string
	overwrite bool
	rpt       *config.Report
	log       *zap.Logger

	frame   *compose.Frame
	pending bool // something happened since last tick
	frames  int
	shots   []string
}

type Option func(*Runner)

// WithOverwrite allows replacing existing snapshot files.
func WithOverwrite(overwrite bool) Option {
	return func(r *Runner) { r.overwrite = overwrite }
}

// WithReport stores engine state next to every snapshot in debug report.
func WithReport(rpt *config.Report) Option {
	return func(r *Runner) { r.rpt = rpt }
}

// NewRunner prepares runner writing snapshots to dst directory.
func NewRunner(cfg *config.ReplayConfig, eng *engine.Engine, clock *Clock, dst string, log *zap.Logger, opts ...Option) (*Runner, error) {
	renderer, err := compose.NewRenderer(cfg.Background)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare renderer: %w", err)
	}
	tmpl, err := template.New(string(config.SnapshotNameTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(cfg.SnapshotNameTemplate)
	if err != nil {
		return nil, fmt.Errorf("unable to parse template field %s: %w", config.SnapshotNameTemplateFieldName, err)
	}
	r := &Runner{
		cfg:      cfg,
		eng:      eng,
		clock:    clock,
		renderer: renderer,
		nameTmpl: tmpl,
		dst:      dst,
		log:      log.Named("replay"),
		pending:  true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Snapshots returns paths of files written so far.
func (r *Runner) Snapshots() []string {
	return r.shots
}

// Frames returns number of frames ticked so far.
func (r *Runner) Frames() int {
	return r.frames
}

// Run executes all steps. Failed expectations do not stop the run, they are
// collected and returned together at the end.
func (r *Runner) Run(ctx context.Context, s *Script) (err error) {
	r.log.Debug("Replay starting", zap.String("script", s.Name), zap.Int("steps", len(s.Steps)))
	defer func(start time.Time) {
		r.log.Debug("Replay completed", zap.String("script", s.Name),
			zap.Int("frames", r.frames), zap.Int("snapshots", len(r.shots)), zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	if s.View != nil {
		r.eng.Resize(*s.View)
		r.pending = true
	}
	if s.Mode != nil {
		r.eng.SetMode(*s.Mode)
		r.pending = true
	}

	for i := range s.Steps {
		if er := ctx.Err(); er != nil {
			return multierr.Append(err, er)
		}
		step := &s.Steps[i]
		action, er := step.Action()
		if er != nil {
			return multierr.Append(err, fmt.Errorf("step %d: %w", i+1, er))
		}
		r.log.Debug("Step", zap.Int("index", i+1), zap.String("action", action))

		var fail *ExpectationError
		if er := r.exec(step, action); errors.As(er, &fail) {
			fail.Step = i + 1
			err = multierr.Append(err, fail)
		} else if er != nil {
			return multierr.Append(err, fmt.Errorf("step %d (%s): %w", i+1, action, er))
		}
	}
	return err
}

func (r *Runner) exec(s *Step, action string) error {
	switch action {
	case "pointer":
		ev := *s.Pointer
		ev.Time = time.Time{}
		r.eng.HandlePointer(ev)
	case "tap":
		r.eng.HandlePointer(gesture.PointerEvent{Phase: common.PointerPhaseDown, X: s.Tap.X, Y: s.Tap.Y})
		r.eng.HandlePointer(gesture.PointerEvent{Phase: common.PointerPhaseUp, X: s.Tap.X, Y: s.Tap.Y})
	case "drag":
		r.drag(s.Drag)
	case "frames":
		r.advance(s.Frames)
		return nil
	case "wait":
		r.advance(int(math.Ceil(float64(s.Wait) / float64(r.cfg.FrameInterval))))
		return nil
	case "settle":
		r.eng.Settle()
	case "goto":
		r.eng.GoToPage(*s.GoTo)
	case "next":
		r.eng.Next()
	case "prev":
		r.eng.Prev()
	case "seek":
		r.eng.Seek(*s.Seek)
	case "mode":
		r.eng.SetMode(*s.Mode)
	case "resize":
		r.eng.Resize(*s.Resize)
	case "snapshot":
		return r.snapshot(s.Snapshot)
	case "expect":
		return r.expect(s.Expect)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	r.pending = true
	return nil
}

func (r *Runner) tick() {
	r.frame = r.eng.Tick()
	r.frames++
	r.pending = false
}

// advance moves clock and ticks n frames.
func (r *Runner) advance(n int) {
	for range n {
		r.clock.Advance(r.cfg.FrameInterval)
		r.tick()
	}
}

// current returns latest frame, ticking once in place when engine was touched
// after last tick.
func (r *Runner) current() *compose.Frame {
	if r.pending || r.frame == nil {
		r.tick()
	}
	return r.frame
}

func (r *Runner) drag(d *Drag) {
	frames := max(d.Frames, 1)
	ev := gesture.PointerEvent{Device: d.Device, X: d.From.X, Y: d.From.Y}

	ev.Phase = common.PointerPhaseDown
	r.eng.HandlePointer(ev)
	ev.Phase = common.PointerPhaseMove
	for i := 1; i <= frames; i++ {
		t := float64(i) / float64(frames)
		ev.X = geometry.Lerp(d.From.X, d.To.X, t)
		ev.Y = geometry.Lerp(d.From.Y, d.To.Y, t)
		r.clock.Advance(r.cfg.FrameInterval)
		r.eng.HandlePointer(ev)
		r.tick()
	}
	ev.Phase = common.PointerPhaseUp
	r.eng.HandlePointer(ev)
}

func (r *Runner) snapshot(name string) error {
	f := r.current()
	values := SnapshotValues{
		Context: string(config.SnapshotNameTemplateFieldName),
		Index:   len(r.shots) + 1,
		Name:    slug.Make(name),
		Frame:   r.frames,
		Page:    r.eng.Viewport().CurrentPage + 1,
	}
	buf := new(bytes.Buffer)
	if err := r.nameTmpl.Execute(buf, values); err != nil {
		return fmt.Errorf("unable to expand snapshot name: %w", err)
	}
	fname := config.CleanFileName(strings.TrimSpace(buf.String()))
	if filepath.Ext(fname) == "" {
		fname += ".png"
	}
	path := filepath.Join(r.dst, fname)

	if _, err := os.Stat(path); err == nil && !r.overwrite {
		return fmt.Errorf("snapshot '%s' already exists", path)
	}
	if err := imaging.Save(r.renderer.Render(f), path); err != nil {
		return fmt.Errorf("unable to save snapshot: %w", err)
	}
	r.shots = append(r.shots, path)
	r.log.Debug("Snapshot saved", zap.String("file", path), zap.Int("frame", r.frames), zap.Uint64("seq", f.Seq))

	if r.rpt != nil {
		base := strings.TrimSuffix(fname, filepath.Ext(fname))
		r.rpt.Store("replay/"+fname, path)
		r.rpt.StoreYAML("replay/"+base+".yaml", r.eng.State())
	}
	return nil
}

// ExpectationError lists every mismatch of a single expect step.
type ExpectationError struct {
	Step       int
	Mismatches []string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("step %d: expectation failed: %s", e.Step, strings.Join(e.Mismatches, "; "))
}

func (r *Runner) expect(want *Expect) error {
	f := r.current()
	vs := r.eng.Viewport()
	mode, _ := r.eng.Mode()

	var bad []string
	check := func(what string, got, want any) {
		if got != want {
			bad = append(bad, fmt.Sprintf("%s is %v, expected %v", what, got, want))
		}
	}
	if want.Page != nil {
		check("page", vs.CurrentPage, *want.Page)
	}
	if want.Info != nil {
		info := f.Info
		if f.Loading {
			info = pagination.LoadingText
		}
		check("info", info, *want.Info)
	}
	if want.Mode != nil {
		check("mode", mode, *want.Mode)
	}
	if want.Driver != nil {
		check("driver", vs.Driver, *want.Driver)
	}
	if want.Zoomed != nil {
		check("zoomed", vs.Zoomed, *want.Zoomed)
	}
	if want.Controls != nil {
		check("controls", f.Controls, *want.Controls)
	}
	if want.Links != nil {
		check("links", len(f.Links), *want.Links)
	}
	if len(bad) > 0 {
		return &ExpectationError{Mismatches: bad}
	}
	return nil
}
