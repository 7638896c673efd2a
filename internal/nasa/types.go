package nasa

import (
	"encoding/json"
	"strings"
)

// MediaKind is the media type of a featured item. It is a closed set so the
// rendering branches stay exhaustive; anything the API reports beyond image
// and video collapses to MediaOther.
type MediaKind int

const (
	MediaOther MediaKind = iota
	MediaImage
	MediaVideo
)

func ParseMediaKind(s string) MediaKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image":
		return MediaImage
	case "video":
		return MediaVideo
	default:
		return MediaOther
	}
}

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	default:
		return "other"
	}
}

// UnmarshalJSON accepts the free-form media_type string from the wire.
func (k *MediaKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*k = ParseMediaKind(s)
	return nil
}

// Apod is one astronomy-picture-of-the-day record.
type Apod struct {
	Date        string    `json:"date"`
	Title       string    `json:"title"`
	Explanation string    `json:"explanation"`
	MediaType   MediaKind `json:"media_type"`
	URL         string    `json:"url"`
	HDURL       string    `json:"hdurl"`
}

// RoverPhoto is one Mars rover photo record.
type RoverPhoto struct {
	EarthDate  string
	ImgSrc     string
	CameraName string
	RoverName  string
}

// ImageSearchItem is one normalized NASA image-library search result.
// PreviewURL may be empty; such items are skipped by the renderer.
type ImageSearchItem struct {
	Title       string
	Description string
	PreviewURL  string
}

// FlareEvent is one DONKI solar flare event, upstream (most-recent-first)
// order preserved.
type FlareEvent struct {
	ClassType      string `json:"classType"`
	BeginTime      string `json:"beginTime"`
	PeakTime       string `json:"peakTime"`
	SourceLocation string `json:"sourceLocation"`
}
