package main

import (
	"bytes"
	"flag"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ericlevine/symscan/datamatrix/decoder"
)

func TestEnvDefaults(t *testing.T) {
	env := map[string]string{
		"SYMSCAN_WORKERS":   "8",
		"SYMSCAN_TIMEOUT":   "1500ms",
		"SYMSCAN_NOISE":     "2",
		"SYMSCAN_BINARIZER": "hybrid",
	}
	c, err := envDefaults(func(k string) string { return env[k] })
	if err != nil {
		t.Fatal(err)
	}
	if c.workers != 8 || c.timeout != 1500*time.Millisecond || c.noise != 2 || c.binarizer != binarizerHybrid {
		t.Errorf("config %+v", c)
	}

	bad := []map[string]string{
		{"SYMSCAN_WORKERS": "0"},
		{"SYMSCAN_WORKERS": "many"},
		{"SYMSCAN_TIMEOUT": "soon"},
		{"SYMSCAN_NOISE": "-1"},
	}
	for _, env := range bad {
		if _, err := envDefaults(func(k string) string { return env[k] }); err == nil {
			t.Errorf("%v accepted", env)
		}
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"defaults", []string{"a.png"}, false},
		{"hybrid", []string{"-binarizer", "hybrid", "-workers", "2", "a.png"}, false},
		{"unknown binarizer", []string{"-binarizer", "otsu", "a.png"}, true},
		{"unknown flag", []string{"-fast", "a.png"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := envDefaults(func(string) string { return "" })
			if err != nil {
				t.Fatal(err)
			}
			set := flag.NewFlagSet("symscan", flag.ContinueOnError)
			set.SetOutput(io.Discard)
			err = c.parseFlags(set, tc.args)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, want error %v", err, tc.wantErr)
			}
			if err == nil && set.Arg(0) != "a.png" {
				t.Errorf("args %v", set.Args())
			}
		})
	}
}

// writeSymbol renders a 12x12 Data Matrix holding text to a PNG file.
func writeSymbol(t *testing.T, dir, text string) string {
	t.Helper()
	v, err := decoder.Lookup(12, 12)
	if err != nil {
		t.Fatal(err)
	}
	data := make([]byte, v.DataCodewords())
	for i := range data {
		switch {
		case i < len(text):
			data[i] = text[i] + 1
		case i == len(text):
			data[i] = 129
		default:
			r := 129 + 149*(i+1)%253 + 1
			if r > 254 {
				r -= 254
			}
			data[i] = byte(r)
		}
	}
	raw, err := decoder.Interleave(v, data)
	if err != nil {
		t.Fatal(err)
	}
	bits, err := decoder.Place(v, raw)
	if err != nil {
		t.Fatal(err)
	}
	const module, quiet = 5, 15
	img := image.NewGray(image.Rect(0, 0, 12*module+2*quiet, 12*module+2*quiet))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := 0; y < 12*module; y++ {
		for x := 0; x < 12*module; x++ {
			if bits.Get(x/module, y/module) {
				img.SetGray(quiet+x, quiet+y, color.Gray{})
			}
		}
	}
	path := filepath.Join(dir, "symbol.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	symbol := writeSymbol(t, dir, "Hello")
	blank := filepath.Join(dir, "blank.png")
	f, err := os.Create(blank)
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tests := []struct {
		name   string
		args   []string
		code   int
		stdout string
		stderr string
	}{
		{"symbol", []string{"-detectors", "datamatrix", symbol}, 0, "[datamatrix] Hello (1.00,", ""},
		{"hybrid", []string{"-binarizer", "hybrid", "-detectors", "datamatrix", symbol}, 0, "[datamatrix] Hello", ""},
		{"nothing found", []string{blank}, 1, "", "blank.png: "},
		{"missing file", []string{filepath.Join(dir, "missing.png")}, 1, "", "error:"},
		{"no arguments", nil, 2, "", "Usage:"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tc.args, &stdout, &stderr); code != tc.code {
				t.Errorf("exit code %d, want %d; stderr %s", code, tc.code, stderr.String())
			}
			if !strings.Contains(stdout.String(), tc.stdout) {
				t.Errorf("stdout %q, want %q", stdout.String(), tc.stdout)
			}
			if !strings.Contains(stderr.String(), tc.stderr) {
				t.Errorf("stderr %q, want %q", stderr.String(), tc.stderr)
			}
		})
	}
}
