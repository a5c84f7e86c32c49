// Package detect holds the detection-batch types produced by the video
// inference pipeline and the hazard predicate applied to them.
package detect

import "strings"

// Detection is a single labeled object from one inference cycle.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Batch is the full set of detections from one inference cycle. Batches
// arrive continuously; each is evaluated independently against the hazard
// label set.
type Batch struct {
	Detections []Detection `json:"detections"`
	// ImageB64 is the frame the batch was inferred from, base64-encoded.
	// Optional; carried through to the alert broadcast when present.
	ImageB64 string `json:"image,omitempty"`
}

// LabelSet is the set of detection classes treated as hazards.
type LabelSet map[string]struct{}

// NewLabelSet builds a LabelSet from class names. Matching is
// case-insensitive; names are stored lowercased.
func NewLabelSet(labels []string) LabelSet {
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" {
			s[l] = struct{}{}
		}
	}
	return s
}

// Contains reports whether label is in the set.
func (s LabelSet) Contains(label string) bool {
	_, ok := s[strings.ToLower(label)]
	return ok
}

// HasHazard reports whether at least one detection in the batch carries a
// hazard label.
func (b *Batch) HasHazard(hazards LabelSet) bool {
	for _, d := range b.Detections {
		if hazards.Contains(d.Label) {
			return true
		}
	}
	return false
}
