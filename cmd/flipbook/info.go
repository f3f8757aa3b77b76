package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"flipbook/common"
	"flipbook/geometry"
	"flipbook/pagination"
	"flipbook/source"
	"flipbook/state"
	"flipbook/utils/debug"
)

func runInfo(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("info")

	location := cmd.Args().Get(0)
	if len(location) == 0 {
		return errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	mode := env.Cfg.Viewer.Mode
	if name := cmd.String("mode"); len(name) > 0 {
		m, err := common.ParseViewMode(name)
		if err != nil {
			log.Warn("Unknown page mode requested, using configuration", zap.Error(err))
		} else {
			mode = m
		}
	}
	cover := env.Cfg.Viewer.StartWithCover
	if cmd.IsSet("cover") {
		cover = cmd.Bool("cover")
	}

	src, err := source.Open(ctx, location, env.SourceOptions(), log)
	if err != nil {
		return err
	}
	defer src.Close()

	text, err := describe(ctx, location, src, mode, cover, env.Cfg.Cache.FetchTimeout)
	if err != nil {
		// partial description is still useful
		log.Warn("Some pages could not be described", zap.Error(err))
	}
	env.Rpt.StoreData("info.txt", []byte(text))

	_, err = fmt.Fprint(os.Stdout, text)
	return err
}

// describe dumps document as a tree. Auto mode has no window to decide on,
// spreads are listed as for double page layout. Per page failures are
// collected, the rest of the document is still described.
func describe(ctx context.Context, location string, src source.PageSource, mode common.ViewMode, cover bool, timeout time.Duration) (string, error) {
	l := pagination.Layout{
		TotalPages:     src.PageCount(),
		SinglePage:     mode == common.ViewModeSingle,
		StartWithCover: cover,
	}

	tw := debug.NewTreeWriter()
	tw.TextBlock(0, "document", location)
	tw.Line(1, "pages: %d", l.TotalPages)
	tw.Line(1, "mode: %s cover: %t", mode, cover)

	var errs error
	for i := range l.TotalPages {
		if err := ctx.Err(); err != nil {
			return tw.String(), multierr.Append(errs, err)
		}
		tw.Line(1, "page %d", i+1)

		size, err := src.NaturalSize(ctx, i)
		if err != nil {
			errs = multierr.Append(errs, err)
			tw.TextBlock(2, "error", err.Error())
			continue
		}
		tw.Size(2, "size", size)

		links, err := pageLinks(ctx, src, i, size, timeout)
		if err != nil {
			errs = multierr.Append(errs, err)
			tw.TextBlock(2, "error", err.Error())
			continue
		}
		for _, link := range links {
			tw.Rect(2, "link", link.Rect)
			tw.Line(3, "target: %s", link.Target)
		}
	}

	if l.TotalPages > 0 {
		spreads := l.TotalPages
		if !l.SinglePage {
			spreads = pagination.SpreadCount(l.TotalPages, cover)
		}
		tw.Line(1, "spreads: %d", spreads)
		for page := 0; page < l.TotalPages; {
			visible := pagination.VisiblePages(page, l)
			tw.TextBlock(2, fmt.Sprintf("%v", visible), pagination.Format(page, l))
			page = visible[len(visible)-1] + 1
		}
	}
	return tw.String(), errs
}

func pageLinks(ctx context.Context, src source.PageSource, index int, layout geometry.Size, timeout time.Duration) ([]source.Link, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return src.Links(ctx, index, layout)
}
