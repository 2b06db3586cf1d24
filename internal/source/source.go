// Package source provides the two image acquisition strategies the capture
// loop can be pointed at. Grounded on original_source/src/sources.rs's
// ImageSource trait, FilenameSource, and WebCamSource.
package source

import (
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/vova616/screenshot"

	"github.com/jblang/meterread/internal/apperr"
	"github.com/jblang/meterread/internal/imageop"
)

// TimestampedImage pairs a frame with the instant it was captured, mirroring
// sources.rs's TimestampedImage.
type TimestampedImage struct {
	Timestamp time.Time
	Image     *image.Gray
}

// ImageSource is implemented by anything the capture loop can pull a frame
// from.
type ImageSource interface {
	ReadImage() (TimestampedImage, error)
}

// FilenameSource re-reads a single file on disk on every call, stamping the
// result with the file's modification time. Go's os.FileInfo exposes no
// creation time portably, so ModTime stands in for sources.rs's use of
// metadata().created().
type FilenameSource struct {
	Filename string
}

// NewFilenameSource builds a FilenameSource over filename.
func NewFilenameSource(filename string) *FilenameSource {
	return &FilenameSource{Filename: filename}
}

func (s *FilenameSource) ReadImage() (TimestampedImage, error) {
	info, err := os.Stat(s.Filename)
	if err != nil {
		return TimestampedImage{}, apperr.Acquisition(err)
	}
	img, err := imageop.Load(s.Filename)
	if err != nil {
		return TimestampedImage{}, apperr.Acquisition(err)
	}
	return TimestampedImage{Timestamp: info.ModTime(), Image: img}, nil
}

// WebcamSource pulls a frame from the default capture device. The retrieval
// pack carries no webcam library with a grayscale pixel format, so this is
// grounded on github.com/vova616/screenshot (present in the pack's
// soockee-pixel-bot-go manifest) as the nearest analogue for "grab the
// current frame from an attached capture device"; it captures the desktop
// rather than a physical camera, documented in DESIGN.md as a deliberate
// substitution. WarmupFrames discards the first N captures, matching
// cameras that return a stale or black frame immediately after opening the
// stream.
type WebcamSource struct {
	WarmupFrames int
	warmedUp     bool
}

// NewWebcamSource builds a WebcamSource that discards warmupFrames captures
// before returning real frames.
func NewWebcamSource(warmupFrames int) *WebcamSource {
	return &WebcamSource{WarmupFrames: warmupFrames}
}

func (s *WebcamSource) ReadImage() (TimestampedImage, error) {
	if !s.warmedUp {
		for i := 0; i < s.WarmupFrames; i++ {
			if _, err := screenshot.CaptureScreen(); err != nil {
				return TimestampedImage{}, apperr.Acquisition(err)
			}
		}
		s.warmedUp = true
	}

	img, err := screenshot.CaptureScreen()
	if err != nil {
		return TimestampedImage{}, apperr.Acquisition(err)
	}
	now := time.Now()
	out := imageop.ToGray(imaging.Grayscale(img))
	return TimestampedImage{Timestamp: now, Image: out}, nil
}
