package models

// FrameState marks how far a frame has travelled through the pipeline
type FrameState string

// Frame states
const (
	FrameStateRaw       FrameState = "raw"
	FrameStateSegmented FrameState = "segmented"
)

// FrameRecord ties a frame's ordinal position to its storage location.
// The ordinal is fixed at extraction time and is the ordering invariant
// for every later stage: segmented frame N must derive from raw frame N,
// and assembly consumes frames in strictly increasing ordinal order.
type FrameRecord struct {
	Index int        `json:"index"`
	Path  string     `json:"path"`
	State FrameState `json:"state"`
}

// VideoMetadata holds the properties of a source video derived once at
// extraction time. FrameCount reflects any max-frame cap.
type VideoMetadata struct {
	FrameRate  float64 `json:"frame_rate"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameCount int     `json:"frame_count"`
}
