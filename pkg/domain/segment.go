package domain

import "fmt"

// Segment is one time-aligned utterance within an episode. Translation is
// nil until the translator attaches one.
type Segment struct {
	ID          int     `json:"id" bson:"id"`
	Text        string  `json:"text" bson:"text"`
	Start       float64 `json:"start" bson:"start"`
	End         float64 `json:"end" bson:"end"`
	Translation *string `json:"translation" bson:"translation"`
}

// SegmentBundle is the complete ordered segment set for one episode. It is
// stored as a single object and replaced as a whole on re-processing, never
// partially.
type SegmentBundle struct {
	EpisodeID string
	Segments  []Segment
}

// Validate checks the bundle invariants: segment ids are unique and strictly
// ascending together with start times, and every segment has start < end.
func (b SegmentBundle) Validate() error {
	if b.EpisodeID == "" {
		return fmt.Errorf("bundle has no episode id")
	}
	for i, seg := range b.Segments {
		if seg.Start >= seg.End {
			return fmt.Errorf("segment %d: start %.3f >= end %.3f", seg.ID, seg.Start, seg.End)
		}
		if i == 0 {
			continue
		}
		prev := b.Segments[i-1]
		if seg.ID <= prev.ID {
			return fmt.Errorf("segment ids not strictly ascending: %d after %d", seg.ID, prev.ID)
		}
		if seg.Start < prev.Start {
			return fmt.Errorf("segment %d: start %.3f before previous start %.3f", seg.ID, seg.Start, prev.Start)
		}
	}
	return nil
}
