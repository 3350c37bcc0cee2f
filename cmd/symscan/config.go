package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ericlevine/symscan"
)

// Binarizer names accepted by -binarizer.
const (
	binarizerGlobal = "global"
	binarizerHybrid = "hybrid"
)

type config struct {
	workers   int
	timeout   time.Duration
	noise     int
	binarizer string
	detectors string
	calibrate bool
	verbose   bool
}

// loadEnv reads an optional .env file into the environment. Variables that
// are already set win.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// envDefaults returns the flag defaults, taken from SYMSCAN_* variables
// where they are set.
func envDefaults(getenv func(string) string) (config, error) {
	c := config{
		workers:   symscan.DefaultWorkers,
		noise:     symscan.DefaultNoiseLevel,
		binarizer: binarizerGlobal,
	}
	if v := getenv("SYMSCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c, fmt.Errorf("SYMSCAN_WORKERS=%q: want a positive integer", v)
		}
		c.workers = n
	}
	if v := getenv("SYMSCAN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return c, fmt.Errorf("SYMSCAN_TIMEOUT=%q: %w", v, err)
		}
		c.timeout = d
	}
	if v := getenv("SYMSCAN_NOISE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c, fmt.Errorf("SYMSCAN_NOISE=%q: want a positive integer", v)
		}
		c.noise = n
	}
	if v := getenv("SYMSCAN_BINARIZER"); v != "" {
		c.binarizer = v
	}
	return c, nil
}

// parseFlags binds c to set and parses args.
func (c *config) parseFlags(set *flag.FlagSet, args []string) error {
	set.IntVar(&c.workers, "workers", c.workers, "number of row chunks scanned in parallel")
	set.DurationVar(&c.timeout, "timeout", c.timeout, "give up on an image after this long (0 for no limit)")
	set.IntVar(&c.noise, "noise", c.noise, "pattern finder noise levels")
	set.StringVar(&c.binarizer, "binarizer", c.binarizer, "thresholding: global or hybrid")
	set.StringVar(&c.detectors, "detectors", "", "comma separated detectors to run (default all)")
	set.BoolVar(&c.calibrate, "calibrate", false, "let detectors adjust the threshold after a confident match")
	set.BoolVar(&c.verbose, "v", false, "log rejected candidates")
	if err := set.Parse(args); err != nil {
		return err
	}
	switch c.binarizer {
	case binarizerGlobal, binarizerHybrid:
	default:
		return fmt.Errorf("unknown binarizer %q", c.binarizer)
	}
	return nil
}
