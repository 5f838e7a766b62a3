package main

import (
	"context"
	"fmt"

	"github.com/acm19/jpegtune/internal/compression"
	"github.com/acm19/jpegtune/internal/config"
	"github.com/acm19/jpegtune/internal/library"
	"github.com/acm19/jpegtune/internal/picker"
	"github.com/acm19/jpegtune/internal/shell"
)

// newShell wires the shell from configuration
func newShell(ctx context.Context, cfg *config.Config) (*shell.Shell, error) {
	codec := compression.NewCodec()

	lib, err := newLibrary(ctx, cfg.Library, codec)
	if err != nil {
		return nil, err
	}

	status, err := picker.ParseStatus(cfg.Permission)
	if err != nil {
		return nil, err
	}

	controller := compression.NewController(codec)
	controller.SetQuality(compression.Quality(cfg.Quality))

	return shell.New(shell.Options{
		Controller:       controller,
		Picker:           picker.NewPicker(picker.StaticAuthorizer(status), picker.WithMaxPixels(cfg.Preview.MaxPixels)),
		Library:          lib,
		Screen:           shell.Screen{Width: cfg.Preview.ScreenWidth},
		PreviewMaxHeight: cfg.Preview.MaxHeight,
		Margin:           cfg.Preview.Margin,
	}), nil
}

// newLibrary creates the configured photo library
func newLibrary(ctx context.Context, cfg config.LibraryConfig, codec compression.Codec) (library.Library, error) {
	switch cfg.Kind {
	case config.LibraryDisk:
		return library.NewDiskLibrary(cfg.Root, codec), nil
	case config.LibraryS3:
		lib, err := library.NewS3Library(ctx, cfg.Bucket, cfg.Prefix, codec)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise s3 library: %w", err)
		}
		return lib, nil
	case config.LibraryMemory:
		return library.NewMemoryLibrary(codec), nil
	default:
		return nil, fmt.Errorf("unknown library kind: %s", cfg.Kind)
	}
}
