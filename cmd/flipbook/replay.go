package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"flipbook/engine"
	"flipbook/geometry"
	"flipbook/script"
	"flipbook/source"
	"flipbook/state"
)

func runReplay(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("replay")

	location, scriptFile := cmd.Args().Get(0), cmd.Args().Get(1)
	if len(location) == 0 {
		return errors.New("no input source has been specified")
	}
	if len(scriptFile) == 0 {
		return errors.New("no replay script has been specified")
	}

	dst := cmd.Args().Get(2)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 3 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[3:]))
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}

	s, err := script.Load(scriptFile)
	if err != nil {
		return err
	}
	if err := env.Rpt.StoreCopy("replay/"+filepath.Base(scriptFile), scriptFile); err != nil {
		log.Warn("Unable to store script in debug report", zap.Error(err))
	}

	view := geometry.Size{Width: env.Cfg.Replay.Width, Height: env.Cfg.Replay.Height}
	if cmd.IsSet("width") {
		view.Width = cmd.Float("width")
	}
	if cmd.IsSet("height") {
		view.Height = cmd.Float("height")
	}
	if view.Width <= 0 || view.Height <= 0 {
		return fmt.Errorf("bad window size %gx%g", view.Width, view.Height)
	}
	env.Overwrite = cmd.Bool("overwrite")

	// constant start keeps snapshot names and frame timing reproducible
	clock := script.NewClock(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))
	eng := engine.New(env.Cfg, env.Log, engine.WithClock(clock.Now), engine.WithLinkHandler(func(t source.Target) {
		log.Info("Link activated", zap.Stringer("target", t))
	}))
	defer func() {
		if er := eng.Close(); er != nil {
			log.Warn("Unable to close engine", zap.Error(er))
		}
	}()

	eng.Resize(view)
	if err := eng.Open(ctx, location, env.SourceOptions()); err != nil {
		return err
	}

	runner, err := script.NewRunner(&env.Cfg.Replay, eng, clock, dst, env.Log,
		script.WithOverwrite(env.Overwrite),
		script.WithReport(env.Rpt),
	)
	if err != nil {
		return err
	}

	log.Info("Replay starting", zap.String("source", location), zap.String("script", scriptFile), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Replay completed", zap.Int("frames", runner.Frames()), zap.Int("snapshots", len(runner.Snapshots())), zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	err = runner.Run(ctx, s)
	env.Rpt.StoreData("replay/state.txt", []byte(eng.State().String()))
	return err
}
