package render

import (
	"strings"
	"testing"

	"nasabot/internal/nasa"
)

func TestApodImage(t *testing.T) {
	item := &nasa.Apod{
		Date:        "2024-06-01",
		Title:       "A Nebula",
		Explanation: "Dust and gas.",
		MediaType:   nasa.MediaImage,
		URL:         "https://apod.nasa.gov/image/low.jpg",
		HDURL:       "https://apod.nasa.gov/image/hd.jpg",
	}
	out := Apod(item)
	if len(out) != 1 {
		t.Fatalf("payloads = %d; want 1", len(out))
	}
	p := out[0]
	if p.Title != "NASA Astronomy Picture of the Day - 2024-06-01" {
		t.Fatalf("title = %q", p.Title)
	}
	if p.ImageURL != item.HDURL {
		t.Fatalf("image = %q; want hi-res %q", p.ImageURL, item.HDURL)
	}
	if p.LinkURL != item.URL {
		t.Fatalf("link = %q; want %q", p.LinkURL, item.URL)
	}
	if p.Footer != "© NASA | Media Type: image" {
		t.Fatalf("footer = %q", p.Footer)
	}
}

func TestApodImageFallsBackToStandardURL(t *testing.T) {
	item := &nasa.Apod{
		Date:      "2024-06-01",
		MediaType: nasa.MediaImage,
		URL:       "https://apod.nasa.gov/image/low.jpg",
		HDURL:     "ftp://apod.nasa.gov/image/hd.jpg",
	}
	out := Apod(item)
	if out[0].ImageURL != item.URL {
		t.Fatalf("image = %q; want standard %q", out[0].ImageURL, item.URL)
	}
}

func TestApodVideoGetsPlainLinkPayload(t *testing.T) {
	item := &nasa.Apod{
		Date:        "2024-06-02",
		Explanation: "A flyby.",
		MediaType:   nasa.MediaVideo,
		URL:         "https://www.youtube.com/embed/xyz",
	}
	out := Apod(item)
	if len(out) != 2 {
		t.Fatalf("payloads = %d; want 2", len(out))
	}
	if out[0].ImageURL != "" {
		t.Fatalf("video card must not carry an image, got %q", out[0].ImageURL)
	}
	second := out[1]
	if !second.Plain {
		t.Fatalf("second payload is not plain")
	}
	if second.Body != item.URL {
		t.Fatalf("second payload body = %q; want raw URL", second.Body)
	}
	if second.Title != "" || second.Footer != "" {
		t.Fatalf("second payload carries card fields: %+v", second)
	}
}

func TestApodOtherMedia(t *testing.T) {
	item := &nasa.Apod{
		Date:      "2024-06-03",
		MediaType: nasa.MediaOther,
		URL:       "https://apod.nasa.gov/thing",
	}
	out := Apod(item)
	if len(out) != 1 {
		t.Fatalf("payloads = %d; want 1", len(out))
	}
	if out[0].ImageURL != "" {
		t.Fatalf("unknown media kind must not embed an image")
	}
	if out[0].LinkURL != item.URL {
		t.Fatalf("link = %q; want %q", out[0].LinkURL, item.URL)
	}
}

func TestImageSearchItemSkipsMissingPreview(t *testing.T) {
	if _, ok := ImageSearchItem(nasa.ImageSearchItem{Title: "x"}); ok {
		t.Fatalf("item without preview URL was not skipped")
	}
}

func TestImageSearchItemPlaceholders(t *testing.T) {
	p, ok := ImageSearchItem(nasa.ImageSearchItem{PreviewURL: "https://img/preview.jpg"})
	if !ok {
		t.Fatalf("item with preview URL was skipped")
	}
	if p.Title != "NASA Image" {
		t.Fatalf("title = %q; want placeholder", p.Title)
	}
	if p.Body != "No description available" {
		t.Fatalf("body = %q; want placeholder", p.Body)
	}
	if p.Footer != "Source: images-api.nasa.gov" {
		t.Fatalf("footer = %q", p.Footer)
	}
}

func TestImageSearchItemTruncatesDescription(t *testing.T) {
	long := strings.Repeat("a", 3000)
	p, ok := ImageSearchItem(nasa.ImageSearchItem{
		Title:       "Earth",
		Description: long,
		PreviewURL:  "https://img/preview.jpg",
	})
	if !ok {
		t.Fatalf("item was skipped")
	}
	if got := len([]rune(p.Body)); got != 2048 {
		t.Fatalf("truncated length = %d; want 2048", got)
	}
	if !strings.HasSuffix(p.Body, "...") {
		t.Fatalf("truncated body does not end with marker")
	}
	if !strings.HasPrefix(p.Body, strings.Repeat("a", 2045)) {
		t.Fatalf("truncated body lost leading content")
	}
}

func TestImageSearchItemKeepsShortDescription(t *testing.T) {
	exact := strings.Repeat("b", 2048)
	p, _ := ImageSearchItem(nasa.ImageSearchItem{
		Description: exact,
		PreviewURL:  "https://img/p.jpg",
	})
	if p.Body != exact {
		t.Fatalf("description at the limit was modified")
	}
}

func TestRoverPhoto(t *testing.T) {
	p := RoverPhoto(nasa.RoverPhoto{
		EarthDate:  "2024-05-30",
		ImgSrc:     "https://mars.nasa.gov/p.jpg",
		CameraName: "Mast Camera",
		RoverName:  "Curiosity",
	})
	if p.Title != "Mars Rover Photo - 2024-05-30" {
		t.Fatalf("title = %q", p.Title)
	}
	if p.Footer != "Camera: Mast Camera | Rover: Curiosity" {
		t.Fatalf("footer = %q", p.Footer)
	}
	if p.ImageURL != "https://mars.nasa.gov/p.jpg" {
		t.Fatalf("image = %q", p.ImageURL)
	}
}

func TestSolarFlare(t *testing.T) {
	p := SolarFlare(nasa.FlareEvent{
		ClassType:      "X1.0",
		BeginTime:      "2024-05-10T12:00Z",
		PeakTime:       "2024-05-10T12:30Z",
		SourceLocation: "N15W20",
	})
	if p.Title != "Space Weather Alert: Solar Flare" {
		t.Fatalf("title = %q", p.Title)
	}
	want := "Class: X1.0\nStart: 2024-05-10T12:00Z\nPeak: 2024-05-10T12:30Z\nSource: N15W20"
	if p.Body != want {
		t.Fatalf("body = %q; want %q", p.Body, want)
	}
}
