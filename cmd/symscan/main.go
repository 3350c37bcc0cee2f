// Command symscan finds and decodes barcode symbols in image files.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/binarizer"

	// Register the detectors.
	_ "github.com/ericlevine/symscan/datamatrix"
	_ "github.com/ericlevine/symscan/oned"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := loadEnv(".env"); err != nil {
		fmt.Fprintf(stderr, "symscan: %v\n", err)
		return 2
	}
	cfg, err := envDefaults(os.Getenv)
	if err != nil {
		fmt.Fprintf(stderr, "symscan: %v\n", err)
		return 2
	}
	set := flag.NewFlagSet("symscan", flag.ContinueOnError)
	set.SetOutput(stderr)
	set.Usage = func() {
		fmt.Fprintf(stderr, "Usage: symscan [flags] <image-file> [image-file...]\n\n")
		fmt.Fprintf(stderr, "Find and decode barcode symbols (%s) in image files.\n\n", strings.Join(symscan.Detectors(), ", "))
		fmt.Fprintf(stderr, "Flags:\n")
		set.PrintDefaults()
	}
	if err := cfg.parseFlags(set, args); err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(stderr, "symscan: %v\n", err)
		}
		return 2
	}
	if set.NArg() == 0 {
		set.Usage()
		return 2
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	opts := &symscan.ScanOptions{
		Workers:    cfg.workers,
		Timeout:    cfg.timeout,
		NoiseLevel: cfg.noise,
		Calibrate:  cfg.calibrate,
		Logger:     slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}
	if cfg.detectors != "" {
		opts.Detectors = strings.Split(cfg.detectors, ",")
	}

	exitCode := 0
	for _, path := range set.Args() {
		regions, err := scanFile(context.Background(), path, cfg.binarizer, opts)
		if err != nil {
			fmt.Fprintf(stderr, "%s: error: %v\n", path, err)
			exitCode = 1
			continue
		}
		if len(regions) == 0 {
			fmt.Fprintf(stderr, "%s: no symbols found\n", path)
			exitCode = 1
			continue
		}
		for _, r := range regions {
			if set.NArg() > 1 {
				fmt.Fprintf(stdout, "%s: ", path)
			}
			fmt.Fprintln(stdout, format(r))
		}
	}
	return exitCode
}

// format prints a region as "[symbology] payload (confidence, corners)".
func format(r *symscan.BarCodeRegion) string {
	return fmt.Sprintf("[%s] %s (%.2f, %v %v %v %v)", r.Symbology, r.Payload, r.Confidence, r.A, r.B, r.C, r.D)
}

func scanFile(ctx context.Context, path, thresholding string, opts *symscan.ScanOptions) ([]*symscan.BarCodeRegion, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bm, err := newBitmap(img, thresholding)
	if err != nil {
		return nil, err
	}
	return symscan.Scan(ctx, bm, opts)
}

// newBitmap thresholds img either globally, keeping the gray levels for
// sub-pixel sampling, or block by block with the hybrid binarizer.
func newBitmap(img image.Image, thresholding string) (symscan.Bitmap, error) {
	src := symscan.NewImageLuminanceSource(img)
	if thresholding == binarizerHybrid {
		m, err := binarizer.NewHybrid(src).BlackMatrix()
		if err != nil {
			return nil, fmt.Errorf("binarize: %w", err)
		}
		return symscan.NewMatrixBitmap(m), nil
	}
	t, err := binarizer.EstimateThreshold(src)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}
	return symscan.NewGrayBitmap(src, t), nil
}
