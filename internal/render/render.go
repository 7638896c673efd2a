// Package render maps fetched NASA records to outbound message payloads.
package render

import (
	"fmt"
	"strings"

	"nasabot/internal/nasa"
	kit "nasabot/internal/transport"
)

const (
	// descriptionLimit is the display cap for image-search descriptions.
	// Oversized text keeps descriptionLimit-3 characters plus the marker.
	descriptionLimit = 2048
	ellipsis         = "..."

	placeholderTitle       = "NASA Image"
	placeholderDescription = "No description available"
)

// Apod renders a featured item into 1-2 payloads depending on media kind:
// image items embed the picture (hi-res preferred), video items get a second
// plain payload carrying the raw URL so clients without embed previews still
// see a clickable link, anything else is text only.
func Apod(item *nasa.Apod) []kit.Payload {
	card := kit.Payload{
		Title:  "NASA Astronomy Picture of the Day - " + item.Date,
		Body:   item.Explanation,
		Footer: fmt.Sprintf("© NASA | Media Type: %s", item.MediaType),
	}
	if wellFormedURL(item.URL) {
		card.LinkURL = item.URL
	}

	switch item.MediaType {
	case nasa.MediaImage:
		if wellFormedURL(item.HDURL) {
			card.ImageURL = item.HDURL
		} else {
			card.ImageURL = item.URL
		}
		return []kit.Payload{card}
	case nasa.MediaVideo:
		return []kit.Payload{card, {Body: item.URL, Plain: true}}
	default:
		return []kit.Payload{card}
	}
}

func RoverPhoto(p nasa.RoverPhoto) kit.Payload {
	return kit.Payload{
		Title:    "Mars Rover Photo - " + p.EarthDate,
		ImageURL: p.ImgSrc,
		Footer:   fmt.Sprintf("Camera: %s | Rover: %s", p.CameraName, p.RoverName),
	}
}

// ImageSearchItem renders one search result, or reports skip=false when the
// item has no preview link.
func ImageSearchItem(it nasa.ImageSearchItem) (kit.Payload, bool) {
	if it.PreviewURL == "" {
		return kit.Payload{}, false
	}
	title := it.Title
	if title == "" {
		title = placeholderTitle
	}
	desc := it.Description
	if desc == "" {
		desc = placeholderDescription
	}
	return kit.Payload{
		Title:    title,
		Body:     truncDescription(desc),
		ImageURL: it.PreviewURL,
		Footer:   "Source: images-api.nasa.gov",
	}, true
}

func SolarFlare(ev nasa.FlareEvent) kit.Payload {
	return kit.Payload{
		Title: "Space Weather Alert: Solar Flare",
		Body: fmt.Sprintf("Class: %s\nStart: %s\nPeak: %s\nSource: %s",
			ev.ClassType, ev.BeginTime, ev.PeakTime, ev.SourceLocation),
		Footer: "Data from NASA DONKI API",
	}
}

// wellFormedURL is the same cheap check the embeds need: only http(s) links
// may be attached as images or click-through targets.
func wellFormedURL(s string) bool {
	return strings.HasPrefix(s, "http")
}

func truncDescription(s string) string {
	r := []rune(s)
	if len(r) <= descriptionLimit {
		return s
	}
	return string(r[:descriptionLimit-len(ellipsis)]) + ellipsis
}
