package shell

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/acm19/jpegtune/internal/compression"
	"github.com/acm19/jpegtune/internal/library"
	"github.com/acm19/jpegtune/internal/logger"
	"github.com/acm19/jpegtune/internal/picker"
)

var (
	// ErrNotRunning is returned when an operation is submitted after Run returned.
	ErrNotRunning = errors.New("shell is not running")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("shell is already running")
	// ErrNothingToSave is returned by Save when no compressed image exists.
	ErrNothingToSave = errors.New("no compressed image to save")
)

// Screen describes the display the previews are laid out for.
type Screen struct {
	// Width is the usable screen width in pixels.
	Width int
}

// Options configures a Shell. Every collaborator is passed in explicitly.
type Options struct {
	Controller *compression.Controller
	Picker     picker.Picker
	Library    library.Library
	Screen     Screen
	// PreviewMaxHeight caps preview height. Defaults to 250.
	PreviewMaxHeight int
	// Margin is subtracted from the screen width. Defaults to 20.
	Margin int
}

// Shell presents the controller state and forwards picker and save requests.
//
// All operations run on the goroutine executing Run, one at a time, so the
// controller is only ever touched from there.
type Shell struct {
	controller *compression.Controller
	picker     picker.Picker
	library    library.Library
	layout     layout

	events  chan event
	stopped chan struct{}
	running atomic.Bool

	// owned by the Run goroutine
	sourcePreview     *Preview
	compressedPreview *Preview
	lastAsset         *library.Asset
}

type event struct {
	fn   func()
	done chan struct{}
}

// New creates a Shell from opts
func New(opts Options) *Shell {
	if opts.Controller == nil {
		opts.Controller = compression.NewController(nil)
	}
	if opts.Picker == nil {
		opts.Picker = picker.NewPicker(nil)
	}
	if opts.Library == nil {
		opts.Library = library.NewMemoryLibrary(nil)
	}
	if opts.PreviewMaxHeight <= 0 {
		opts.PreviewMaxHeight = 250
	}
	if opts.Margin < 0 {
		opts.Margin = 0
	}

	return &Shell{
		controller: opts.Controller,
		picker:     opts.Picker,
		library:    opts.Library,
		layout: layout{
			frameWidth: opts.Screen.Width - opts.Margin,
			maxHeight:  opts.PreviewMaxHeight,
		},
		events:  make(chan event),
		stopped: make(chan struct{}),
	}
}

// Run processes operations until ctx is done. It returns nil on a normal
// shutdown.
func (s *Shell) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.stopped)

	logger.Debug("Shell event loop started")
	for {
		select {
		case ev := <-s.events:
			ev.fn()
			close(ev.done)
		case <-ctx.Done():
			logger.Debug("Shell event loop stopped")
			return nil
		}
	}
}

// submit runs fn on the event loop and waits for it to finish
func (s *Shell) submit(ctx context.Context, fn func()) error {
	ev := event{fn: fn, done: make(chan struct{})}
	select {
	case s.events <- ev:
	case <-s.stopped:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	// fn observes ctx itself.
	<-ev.done
	return nil
}

// Pick opens the picker on src and, if a bitmap is delivered, makes it the new
// source. A refused permission or a cancelled pick leaves the state unchanged
// and reports picked == false.
func (s *Shell) Pick(ctx context.Context, src picker.Source) (picked bool, err error) {
	submitErr := s.submit(ctx, func() {
		picked, err = s.pick(ctx, src)
	})
	if submitErr != nil {
		return false, submitErr
	}
	return picked, err
}

func (s *Shell) pick(ctx context.Context, src picker.Source) (bool, error) {
	delivered, err := s.picker.Pick(ctx, src)
	if errors.Is(err, picker.ErrPermissionDenied) {
		logger.Warn("Picker not shown", "reason", err)
		return false, nil
	}
	if err != nil {
		logger.Warn("Picker failed", "error", err)
		return false, nil
	}

	bitmap, ok, err := picker.Await(ctx, delivered)
	if err != nil {
		return false, err
	}
	if !ok {
		logger.Debug("Nothing picked")
		return false, nil
	}

	s.controller.SetSource(bitmap)
	s.sourcePreview = s.layout.preview(sourceTitle, bitmap)
	s.refreshCompressed()
	logger.Info("Picked new source", "width", bitmap.Width(), "height", bitmap.Height(), "quality", s.controller.Quality())
	return true, nil
}

// SetQuality snaps q to the slider step and recomputes the compressed image.
func (s *Shell) SetQuality(ctx context.Context, q compression.Quality) error {
	return s.submit(ctx, func() {
		s.controller.SetQuality(q.Quantize())
		s.refreshCompressed()
	})
}

// Save writes the compressed image to the library. Failures are logged and
// returned as *library.SaveError; the view is unaffected.
func (s *Shell) Save(ctx context.Context) (asset library.Asset, err error) {
	submitErr := s.submit(ctx, func() {
		compressed := s.controller.Compressed()
		if !compressed.Present() {
			err = ErrNothingToSave
			return
		}
		asset, err = s.library.Save(ctx, compressed)
		if err != nil {
			logger.Error("Failed to save compressed image", "error", err)
			return
		}
		saved := asset
		s.lastAsset = &saved
		logger.Info("Saved compressed image", "id", asset.ID, "location", asset.Location, "bytes", asset.Size)
	})
	if submitErr != nil {
		return library.Asset{}, submitErr
	}
	return asset, err
}

// View renders the current state.
func (s *Shell) View(ctx context.Context) (ViewModel, error) {
	var vm ViewModel
	err := s.submit(ctx, func() {
		vm = s.render()
	})
	return vm, err
}

func (s *Shell) refreshCompressed() {
	state := s.controller.State()
	if !state.Compressed.Present() {
		s.compressedPreview = nil
		return
	}
	s.compressedPreview = s.layout.preview(compressedTitle(state.Quality), state.Compressed)
}

func (s *Shell) render() ViewModel {
	state := s.controller.State()
	vm := ViewModel{
		Phase:       s.controller.Phase().String(),
		Quality:     float64(state.Quality),
		EncodedSize: state.EncodedSize,
		Source:      s.sourcePreview,
		Compressed:  s.compressedPreview,
	}
	if s.compressedPreview != nil {
		vm.ShowSlider = true
		vm.ShowSave = true
	}
	if s.lastAsset != nil {
		vm.LastSaved = s.lastAsset.Location
	}
	return vm
}

const sourceTitle = "Source image from picker"

func compressedTitle(q compression.Quality) string {
	return fmt.Sprintf("Image made from sourceImage's jpegData with a compressionQuality of %s", q)
}
