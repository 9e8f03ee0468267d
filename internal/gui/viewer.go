package gui

import (
	"image"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// GlyphViewer is a custom widget for viewing rendered glyphs with pan/zoom.
// Glyph bitmaps are small, so they are enlarged without smoothing to keep
// individual pixels visible.
type GlyphViewer struct {
	widget.BaseWidget

	image    *canvas.Image
	glyphImg image.Image

	// View state
	zoom    float64
	offsetX float64
	offsetY float64
}

const (
	minZoom = 1.0
	maxZoom = 32.0
)

// NewGlyphViewer creates a new glyph viewer widget.
func NewGlyphViewer() *GlyphViewer {
	v := &GlyphViewer{
		zoom: 8.0,
	}
	v.ExtendBaseWidget(v)

	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillStretch
	v.image.ScaleMode = canvas.ImageScalePixels

	return v
}

// SetImage sets the glyph image to display, keeping the zoom level.
func (v *GlyphViewer) SetImage(img image.Image) {
	v.glyphImg = img
	v.image.Image = img
	v.image.Refresh()
	v.Refresh()
}

// Zoom returns the zoom factor.
func (v *GlyphViewer) Zoom() float64 {
	return v.zoom
}

// ResetView resets zoom and offset.
func (v *GlyphViewer) ResetView() {
	v.zoom = 8.0
	v.offsetX, v.offsetY = 0, 0
	v.Refresh()
}

// CreateRenderer creates the renderer for this widget.
func (v *GlyphViewer) CreateRenderer() fyne.WidgetRenderer {
	return &glyphViewerRenderer{
		viewer: v,
	}
}

// Dragged handles drag events for panning.
func (v *GlyphViewer) Dragged(event *fyne.DragEvent) {
	v.offsetX += float64(event.Dragged.DX)
	v.offsetY += float64(event.Dragged.DY)
	v.Refresh()
}

// DragEnd handles the end of a drag. Offsets are updated while dragging.
func (v *GlyphViewer) DragEnd() {}

// Scrolled handles scroll events for zooming.
func (v *GlyphViewer) Scrolled(event *fyne.ScrollEvent) {
	delta := float64(event.Scrolled.DY) / 100
	v.setZoom(v.zoom * (1 + delta))
}

// ZoomIn increases zoom level.
func (v *GlyphViewer) ZoomIn() {
	v.setZoom(v.zoom * 1.5)
}

// ZoomOut decreases zoom level.
func (v *GlyphViewer) ZoomOut() {
	v.setZoom(v.zoom / 1.5)
}

func (v *GlyphViewer) setZoom(z float64) {
	v.zoom = math.Max(minZoom, math.Min(maxZoom, z))
	v.Refresh()
}

// FitView fits the entire glyph image in the widget.
func (v *GlyphViewer) FitView() {
	if v.glyphImg == nil {
		return
	}
	size := v.Size()
	imgW := float64(v.glyphImg.Bounds().Dx())
	imgH := float64(v.glyphImg.Bounds().Dy())
	if imgW == 0 || imgH == 0 {
		return
	}
	v.offsetX, v.offsetY = 0, 0
	v.setZoom(math.Min(float64(size.Width)/imgW, float64(size.Height)/imgH))
}

// glyphViewerRenderer renders the glyph viewer.
type glyphViewerRenderer struct {
	viewer *GlyphViewer
}

func (r *glyphViewerRenderer) Layout(size fyne.Size) {
	if r.viewer.glyphImg == nil {
		return
	}

	imgW := float32(r.viewer.glyphImg.Bounds().Dx()) * float32(r.viewer.zoom)
	imgH := float32(r.viewer.glyphImg.Bounds().Dy()) * float32(r.viewer.zoom)

	// Center image with offset
	x := (size.Width-imgW)/2 + float32(r.viewer.offsetX)
	y := (size.Height-imgH)/2 + float32(r.viewer.offsetY)

	r.viewer.image.Move(fyne.NewPos(x, y))
	r.viewer.image.Resize(fyne.NewSize(imgW, imgH))
}

func (r *glyphViewerRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *glyphViewerRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.viewer.image}
}

func (r *glyphViewerRenderer) Refresh() {
	r.Layout(r.viewer.Size())
	r.viewer.image.Refresh()
}

func (r *glyphViewerRenderer) Destroy() {}
