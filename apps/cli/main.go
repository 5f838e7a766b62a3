package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/acm19/jpegtune/internal/compression"
	"github.com/acm19/jpegtune/internal/config"
	"github.com/acm19/jpegtune/internal/logger"
	"github.com/acm19/jpegtune/internal/picker"
	"github.com/acm19/jpegtune/internal/server"
	"github.com/acm19/jpegtune/internal/shell"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "jpegtune",
	Short:   "Re-encode photos as JPEG at an adjustable quality",
	Long:    `Jpegtune picks a photo, re-encodes it as JPEG at a chosen quality factor, previews the result and saves it to a photo library.`,
	Version: version,
}

var compressCmd = &cobra.Command{
	Use:   "compress FILE",
	Short: "Compress a photo and save it to the library",
	Long:  `Picks FILE (JPEG or PNG), re-encodes it at --quality and saves the compressed image to the configured photo library.`,
	Args:  cobra.ExactArgs(1),
	Run:   runCompress,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive preview over HTTP",
	Long:  `Starts an HTTP server to upload a photo, move the quality slider, fetch previews and save the result.`,
	Args:  cobra.NoArgs,
	Run:   runServe,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show encoded sizes across quality factors",
	Long:  `Encodes FILE at quality 0.1 to 1.0 and logs the JPEG size at each step.`,
	Args:  cobra.ExactArgs(1),
	Run:   runInspect,
}

var (
	configPath  string
	qualityFlag string
	libraryKind string
	libraryRoot string
	addrFlag    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	compressCmd.Flags().StringVarP(&qualityFlag, "quality", "q", "", "Quality factor 0-1 or percentage (e.g. 0.5 or 50%)")
	compressCmd.Flags().StringVarP(&libraryKind, "library", "l", "", "Photo library: disk, s3 or memory")
	compressCmd.Flags().StringVar(&libraryRoot, "root", "", "Root directory of the disk library")

	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().StringVarP(&libraryKind, "library", "l", "", "Photo library: disk, s3 or memory")
	serveCmd.Flags().StringVar(&libraryRoot, "root", "", "Root directory of the disk library")

	rootCmd.AddCommand(compressCmd, serveCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCompress(cmd *cobra.Command, args []string) {
	path := args[0]

	cfg := mustLoadConfig()
	quality := compression.Quality(cfg.Quality)
	if qualityFlag != "" {
		q, err := parseQuality(qualityFlag)
		if err != nil {
			logger.Error("Invalid quality", "value", qualityFlag, "error", err)
			os.Exit(1)
		}
		quality = q
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh, err := newShell(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialise", "error", err)
		os.Exit(1)
	}
	wait := runShell(ctx, sh)
	defer wait()

	picked, err := sh.Pick(ctx, picker.FileSource(path))
	if err != nil {
		logger.Error("Pick failed", "error", err)
		os.Exit(1)
	}
	if !picked {
		logger.Error("No image picked", "file", path)
		os.Exit(1)
	}

	if err := sh.SetQuality(ctx, quality); err != nil {
		logger.Error("Failed to set quality", "error", err)
		os.Exit(1)
	}

	vm, err := sh.View(ctx)
	if err != nil {
		logger.Error("Failed to read state", "error", err)
		os.Exit(1)
	}
	if vm.Compressed == nil {
		logger.Error("No preview available", "file", path, "quality", vm.Quality)
		os.Exit(1)
	}

	asset, err := sh.Save(ctx)
	if err != nil {
		logger.Error("Save failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Compression completed successfully",
		"file", path,
		"quality", fmt.Sprintf("%.2f", vm.Quality),
		"encoded_bytes", vm.EncodedSize,
		"saved", asset.Location,
		"saved_bytes", asset.Size)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	if addrFlag != "" {
		cfg.Server.Addr = addrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh, err := newShell(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialise", "error", err)
		os.Exit(1)
	}
	wait := runShell(ctx, sh)
	defer wait()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(sh),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}()

	logger.Info("Serving", "addr", cfg.Server.Addr, "library", cfg.Library.Kind)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func runInspect(cmd *cobra.Command, args []string) {
	path := args[0]
	cfg := mustLoadConfig()
	ctx := context.Background()

	p := picker.NewPicker(picker.StaticAuthorizer(picker.Authorized), picker.WithMaxPixels(cfg.Preview.MaxPixels))
	picked, err := p.Pick(ctx, picker.FileSource(path))
	if err != nil {
		logger.Error("Pick failed", "error", err)
		os.Exit(1)
	}
	bitmap, ok, err := picker.Await(ctx, picked)
	if err != nil || !ok {
		logger.Error("No image picked", "file", path, "error", err)
		os.Exit(1)
	}

	logger.Info("Inspecting", "file", path, "width", bitmap.Width(), "height", bitmap.Height(), "max_pixels", cfg.Preview.MaxPixels)
	sizes, err := encodedSizes(compression.NewCodec(), bitmap, inspectQualities())
	if err != nil {
		logger.Error("Encode failed", "error", err)
		os.Exit(1)
	}
	for _, s := range sizes {
		logger.Info("Encoded size", "quality", s.quality.String(), "bytes", s.bytes)
	}
}

type qualitySize struct {
	quality compression.Quality
	bytes   int
}

func inspectQualities() []compression.Quality {
	qualities := make([]compression.Quality, 0, 10)
	for i := 1; i <= 10; i++ {
		qualities = append(qualities, compression.Quality(float64(i)/10))
	}
	return qualities
}

// encodedSizes encodes bitmap once per quality.
func encodedSizes(codec compression.Codec, bitmap compression.Bitmap, qualities []compression.Quality) ([]qualitySize, error) {
	sizes := make([]qualitySize, 0, len(qualities))
	for _, q := range qualities {
		data, err := codec.Encode(bitmap, q)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, qualitySize{quality: q, bytes: len(data)})
	}
	return sizes, nil
}

// parseQuality parses a quality factor as "0.5" or "50%".
func parseQuality(s string) (compression.Quality, error) {
	s = strings.TrimSpace(s)
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = 100
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", s)
	}

	q := compression.Quality(v / scale)
	if err := q.Validate(); err != nil {
		return 0, err
	}
	return q, nil
}

func mustLoadConfig() *config.Config {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			logger.Error("Failed to load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if libraryKind != "" {
		cfg.Library.Kind = libraryKind
	}
	if libraryRoot != "" {
		cfg.Library.Root = libraryRoot
	}
	if perm := os.Getenv("JPEGTUNE_PERMISSION"); perm != "" {
		cfg.Permission = perm
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		logger.Error("Invalid log configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// runShell starts the event loop and returns a func waiting for it to stop.
func runShell(ctx context.Context, sh *shell.Shell) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sh.Run(ctx); err != nil {
			logger.Error("Shell stopped", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
