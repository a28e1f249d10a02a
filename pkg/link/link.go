// Package link builds the outbound address of the LC-MS comparison viewer.
package link

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// DefaultViewerRoot is the public LC-MS dashboard.
const DefaultViewerRoot = "https://gnps-lcms.ucsd.edu/"

// RTHalfWidth is the distance from the feature retention time to each edge
// of the extracted ion chromatogram window.
const RTHalfWidth = 1.0

// Feature is the selected chromatographic feature.
type Feature struct {
	Mass          float64
	RetentionTime float64
}

// Window is the retention time range around the feature, "<rt-1>-<rt+1>".
func (f Feature) Window() string {
	return FormatFloat(f.RetentionTime-RTHalfWidth) + "-" + FormatFloat(f.RetentionTime+RTHalfWidth)
}

// Build composes the viewer URL comparing two groups of spectrum identifiers.
//
// Parameters come in the order usi, usi2, xicmz, xic_rt_window; the last two
// only when feature is not nil. Identifiers are joined with newlines.
// Empty groups still give a well-formed URL.
func Build(root string, group1, group2 []string, feature *Feature) string {
	if root == "" {
		root = DefaultViewerRoot
	}

	params := [][2]string{
		{"usi", strings.Join(group1, "\n")},
		{"usi2", strings.Join(group2, "\n")},
	}
	if feature != nil {
		params = append(
			params,
			[2]string{"xicmz", FormatFloat(feature.Mass)},
			[2]string{"xic_rt_window", feature.Window()},
		)
	}

	query := make([]string, len(params))
	for nth, kv := range params {
		query[nth] = url.QueryEscape(kv[0]) + "=" + url.QueryEscape(kv[1])
	}
	return root + "?" + strings.Join(query, "&")
}

// FormatFloat renders v in its shortest round-trip form. Integral values keep
// one decimal place ("2.0"), as the viewer expects.
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
