// Package recorder consumes engine events and writes the session to an
// MJPEG AVI file, keeping an offscreen canvas up to date the same way a
// rendering host would.
package recorder

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"

	vnc "github.com/amitbet/vncengine"
	"github.com/amitbet/vncengine/logger"
	"github.com/icza/mjpeg"
)

// Recorder accumulates framebuffer events on a canvas and emits one
// JPEG frame per Flush.
type Recorder struct {
	avWriter mjpeg.AviWriter
	Quality  int
	canvas   *image.RGBA
	rIdx     int
	gIdx     int
	bIdx     int
}

// New opens the AVI target. Width and height only size the container;
// the canvas follows the session resolution.
func New(videoFileName string, width, height int, framerate int32) (*Recorder, error) {
	if !strings.HasSuffix(videoFileName, ".avi") {
		videoFileName = videoFileName + ".avi"
	}
	if framerate <= 0 {
		framerate = 5
	}
	avWriter, err := mjpeg.New(videoFileName, int32(width), int32(height), framerate)
	if err != nil {
		return nil, err
	}
	return &Recorder{
		avWriter: avWriter,
		canvas:   image.NewRGBA(image.Rect(0, 0, width, height)),
		// engine default layout until a pixel format event arrives
		rIdx: 2, gIdx: 1, bIdx: 0,
	}, nil
}

// Handle applies one engine event to the canvas.
func (rec *Recorder) Handle(ev vnc.VncEvent) error {
	switch e := ev.(type) {
	case vnc.ResolutionEvent:
		rec.resize(int(e.Screen.Width), int(e.Screen.Height))
	case vnc.PixelFormatEvent:
		rec.setPixelFormat(e.PF)
	case vnc.RawImageEvent:
		rec.drawRaw(e.Rect, e.Data)
	case vnc.CursorEvent:
		// the recording shows the remote framebuffer without a cursor
	case vnc.CopyEvent:
		rec.copyRect(e.Dst, e.Src)
	case vnc.JpegImageEvent:
		img, err := jpeg.Decode(bytes.NewReader(e.Data))
		if err != nil {
			return fmt.Errorf("recorder: decoding jpeg rect: %w", err)
		}
		draw.Draw(rec.canvas, image.Rect(int(e.Rect.X), int(e.Rect.Y),
			int(e.Rect.X+e.Rect.Width), int(e.Rect.Y+e.Rect.Height)),
			img, image.Point{}, draw.Src)
	case vnc.BellEvent:
	case vnc.TextEvent:
		logger.Debugf("recorder: clipboard text %q", e.Text)
	case vnc.ErrorEvent:
		return e.Err
	}
	return nil
}

func (rec *Recorder) resize(w, h int) {
	old := rec.canvas
	rec.canvas = image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rec.canvas, old.Bounds(), old, image.Point{}, draw.Src)
}

// setPixelFormat works out where the colour samples sit inside the
// 4-byte output pixels the engine emits.
func (rec *Recorder) setPixelFormat(pf vnc.PixelFormat) {
	if pf.BPP != 32 {
		// narrower session formats are widened to the BGRA layout
		rec.rIdx, rec.gIdx, rec.bIdx = 2, 1, 0
		return
	}
	rec.rIdx = sampleIndex(pf, pf.RedShift)
	rec.gIdx = sampleIndex(pf, pf.GreenShift)
	rec.bIdx = sampleIndex(pf, pf.BlueShift)
}

func sampleIndex(pf vnc.PixelFormat, shift uint8) int {
	if pf.BigEndian != 0 {
		return 3 - int(shift)/8
	}
	return int(shift) / 8
}

func (rec *Recorder) drawRaw(rect vnc.Rectangle, data []byte) {
	i := 0
	for y := int(rect.Y); y < int(rect.Y+rect.Height); y++ {
		for x := int(rect.X); x < int(rect.X+rect.Width); x++ {
			rec.canvas.Set(x, y, color.RGBA{
				R: data[i+rec.rIdx],
				G: data[i+rec.gIdx],
				B: data[i+rec.bIdx],
				A: 255,
			})
			i += 4
		}
	}
}

func (rec *Recorder) copyRect(dst, src vnc.Rectangle) {
	w, h := int(src.Width), int(src.Height)
	tmp := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(tmp, tmp.Bounds(), rec.canvas, image.Point{X: int(src.X), Y: int(src.Y)}, draw.Src)
	draw.Draw(rec.canvas, image.Rect(int(dst.X), int(dst.Y), int(dst.X)+w, int(dst.Y)+h),
		tmp, image.Point{}, draw.Src)
}

// Flush encodes the canvas as one frame.
func (rec *Recorder) Flush() error {
	buf := &bytes.Buffer{}
	jOpts := &jpeg.Options{Quality: rec.Quality}
	if rec.Quality <= 0 {
		jOpts = nil
	}
	if err := jpeg.Encode(buf, rec.canvas, jOpts); err != nil {
		return err
	}
	return rec.avWriter.AddFrame(buf.Bytes())
}

// Close finalises the AVI file.
func (rec *Recorder) Close() error {
	return rec.avWriter.Close()
}
