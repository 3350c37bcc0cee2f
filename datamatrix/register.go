package datamatrix

import "github.com/ericlevine/symscan"

func init() {
	symscan.RegisterDetector(Detector{})
}
