// Package gui provides a native desktop glyph viewer using Fyne.
package gui

import (
	"fmt"
	"unicode"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/unicode/runenames"

	"ttraster/pkg/api"
)

// tracer traces with key 'ttraster.cli'
func tracer() tracing.Trace {
	return tracing.Select("ttraster.cli")
}

// App represents the glyph viewer application.
type App struct {
	fyneApp     fyne.App
	mainWindow  fyne.Window
	file        *api.FontFile
	runes       map[int]rune // glyph to the first BMP codepoint mapped to it
	current     int
	pixelHeight float64
	guides      bool
	prefilter   bool

	// UI components
	toolbar   *Toolbar
	status    *StatusBar
	viewer    *GlyphViewer
	info      *widget.Label
	sample    *widget.Entry
	textImage *canvas.Image
}

// NewApp creates a new glyph viewer application.
func NewApp() *App {
	a := &App{
		fyneApp:     app.New(),
		pixelHeight: 32,
		guides:      true,
	}

	a.fyneApp.Settings().SetTheme(theme.DarkTheme())
	a.mainWindow = a.fyneApp.NewWindow("ttraster Glyph Viewer")
	a.mainWindow.Resize(fyne.NewSize(1000, 720))

	return a
}

// Run starts the application.
func (a *App) Run() {
	a.buildUI()
	a.mainWindow.ShowAndRun()
}

// RunWithFile starts the application with a font already loaded.
func (a *App) RunWithFile(path string) {
	a.buildUI()

	// Load file after window is ready
	go func() {
		if err := a.loadFile(path); err != nil {
			tracer().Errorf("loading %s: %v", path, err)
			dialog.ShowError(err, a.mainWindow)
		}
	}()

	a.mainWindow.ShowAndRun()
}

// buildUI constructs the user interface.
func (a *App) buildUI() {
	a.viewer = NewGlyphViewer()
	a.status = NewStatusBar()
	a.info = widget.NewLabel("No font loaded")
	a.info.Wrapping = fyne.TextWrapWord

	a.toolbar = NewToolbar()
	a.toolbar.OnOpen = a.openFile
	a.toolbar.OnPrev = func() { a.goToGlyph(a.current - 1) }
	a.toolbar.OnNext = func() { a.goToGlyph(a.current + 1) }
	a.toolbar.OnFirst = func() { a.goToGlyph(0) }
	a.toolbar.OnLast = func() {
		if a.file != nil {
			a.goToGlyph(a.file.GlyphCount() - 1)
		}
	}
	a.toolbar.OnGoTo = a.goToGlyph
	a.toolbar.OnFindRune = a.findRune
	a.toolbar.OnSmaller = func() { a.setPixelHeight(a.pixelHeight - 4) }
	a.toolbar.OnLarger = func() { a.setPixelHeight(a.pixelHeight + 4) }
	a.toolbar.OnZoomIn = func() { a.viewer.ZoomIn(); a.updateStatus() }
	a.toolbar.OnZoomOut = func() { a.viewer.ZoomOut(); a.updateStatus() }
	a.toolbar.OnFit = func() { a.viewer.FitView(); a.updateStatus() }
	a.toolbar.OnGuides = func(on bool) {
		a.guides = on
		a.renderCurrentGlyph()
	}
	a.toolbar.OnPrefilter = func(on bool) {
		a.prefilter = on
		a.renderCurrentGlyph()
		a.renderSample()
	}
	a.toolbar.SetGuides(a.guides)
	a.toolbar.Disable()

	// Sample text line
	a.textImage = canvas.NewImageFromImage(nil)
	a.textImage.FillMode = canvas.ImageFillOriginal
	a.textImage.ScaleMode = canvas.ImageScalePixels
	a.sample = widget.NewEntry()
	a.sample.SetText("Hamburgefonstiv")
	a.sample.OnChanged = func(string) { a.renderSample() }

	side := container.NewVScroll(a.info)
	side.SetMinSize(fyne.NewSize(240, 0))
	bottom := container.NewVBox(
		a.sample,
		container.NewHScroll(a.textImage),
		a.status.Container(),
	)

	// Main layout
	content := container.NewBorder(
		container.NewPadded(a.toolbar.Container()), // Top
		bottom, // Bottom
		nil,    // Left
		side,   // Right
		a.viewer,
	)

	a.mainWindow.SetContent(content)
	a.mainWindow.Canvas().SetOnTypedKey(a.handleKey)
	a.updateStatus()
}

// handleKey handles keyboard navigation.
func (a *App) handleKey(key *fyne.KeyEvent) {
	switch key.Name {
	case fyne.KeyLeft, fyne.KeyUp, fyne.KeyPageUp:
		a.goToGlyph(a.current - 1)
	case fyne.KeyRight, fyne.KeyDown, fyne.KeyPageDown:
		a.goToGlyph(a.current + 1)
	case fyne.KeyHome:
		a.goToGlyph(0)
	case fyne.KeyEnd:
		if a.file != nil {
			a.goToGlyph(a.file.GlyphCount() - 1)
		}
	case fyne.KeyPlus, fyne.KeyEqual:
		a.viewer.ZoomIn()
		a.updateStatus()
	case fyne.KeyMinus:
		a.viewer.ZoomOut()
		a.updateStatus()
	case fyne.KeyG:
		a.guides = !a.guides
		a.toolbar.SetGuides(a.guides)
		a.renderCurrentGlyph()
	}
}

// openFile shows a file dialog and loads the selected font.
func (a *App) openFile() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if reader == nil {
			return // Cancelled
		}
		defer reader.Close()

		path := reader.URI().Path()
		if err := a.loadFile(path); err != nil {
			tracer().Errorf("loading %s: %v", path, err)
			dialog.ShowError(err, a.mainWindow)
		}
	}, a.mainWindow)
}

// loadFile loads a font file.
func (a *App) loadFile(path string) error {
	file, err := api.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open font: %w", err)
	}

	// Close previous font
	if a.file != nil {
		a.file.Close()
	}

	a.file = file
	a.current = 0
	a.runes = make(map[int]rune)
	for r := rune(0x20); r <= 0xFFFF; r++ {
		if g := int(file.Font().FindGlyphIndex(r)); g != 0 {
			if _, ok := a.runes[g]; !ok {
				a.runes[g] = r
			}
		}
	}

	info := file.Info()
	a.mainWindow.SetTitle(fmt.Sprintf("ttraster - %s", path))
	a.status.SetStatus(fmt.Sprintf("%s: %d glyphs, %d mapped", info.FullName, info.NumGlyphs, len(a.runes)))
	a.toolbar.Enable()
	a.viewer.ResetView()

	a.goToGlyph(0)
	a.renderSample()
	return nil
}

// goToGlyph navigates to a specific glyph.
func (a *App) goToGlyph(g int) {
	if a.file == nil {
		return
	}
	g = max(0, min(g, a.file.GlyphCount()-1))
	a.current = g
	a.toolbar.SetGlyph(g, a.file.GlyphCount())
	a.renderCurrentGlyph()
}

// findRune navigates to the glyph a character maps to.
func (a *App) findRune(r rune) {
	if a.file == nil {
		return
	}
	a.goToGlyph(int(a.file.Font().FindGlyphIndex(r)))
}

func (a *App) setPixelHeight(px float64) {
	a.pixelHeight = max(4, min(px, 512))
	a.renderCurrentGlyph()
	a.renderSample()
}

func (a *App) renderOptions() []api.Option {
	opts := []api.Option{
		api.PixelHeight(a.pixelHeight),
		api.Background(theme.DefaultTheme().Color(theme.ColorNameBackground, theme.VariantDark)),
		api.Foreground(theme.DefaultTheme().Color(theme.ColorNameForeground, theme.VariantDark)),
	}
	if a.prefilter {
		opts = append(opts, api.Prefilter(2, 2))
	}
	return opts
}

// renderCurrentGlyph renders and displays the current glyph.
func (a *App) renderCurrentGlyph() {
	if a.file == nil {
		return
	}
	glyph, err := a.file.Glyph(a.current)
	if err != nil {
		// a broken glyph leaves the rest of the font usable
		a.viewer.SetImage(nil)
		a.info.SetText(fmt.Sprintf("Glyph %d\n\n%v", a.current, err))
		return
	}
	opts := a.renderOptions()
	if a.guides {
		opts = append(opts, api.Guides())
	}
	img, err := glyph.Render(opts...)
	if err != nil {
		a.info.SetText(fmt.Sprintf("Glyph %d\n\n%v", a.current, err))
		return
	}
	a.viewer.SetImage(img)
	a.info.SetText(a.describe(glyph))
	a.updateStatus()
}

func (a *App) describe(glyph *api.Glyph) string {
	s := fmt.Sprintf("Glyph %d\n", glyph.Index())
	if r, ok := a.runes[int(glyph.Index())]; ok {
		s += fmt.Sprintf("U+%04X", r)
		if unicode.IsPrint(r) {
			s += fmt.Sprintf(" '%c'", r)
		}
		s += "\n" + runenames.Name(r) + "\n"
	}
	s += fmt.Sprintf("\nAdvance: %d\nLSB: %d\nContours: %d\n", glyph.AdvanceWidth(),
		glyph.LeftSideBearing(), glyph.NumContours())
	if box, ok := glyph.Box(); ok {
		s += fmt.Sprintf("Box: %d,%d .. %d,%d\n", box.XMin, box.YMin, box.XMax, box.YMax)
	}
	bb := glyph.BitmapBox(a.pixelHeight)
	s += fmt.Sprintf("Bitmap: %dx%d at %d,%d\n", bb.Dx(), bb.Dy(), bb.Min.X, bb.Min.Y)
	if glyph.IsComposite() {
		s += fmt.Sprintf("Components: %v\n", glyph.Components())
	}
	return s
}

// renderSample renders the sample text line.
func (a *App) renderSample() {
	if a.file == nil || a.sample == nil {
		return
	}
	img, err := a.file.RenderText(a.sample.Text, a.renderOptions()...)
	if err != nil {
		a.status.SetStatus(err.Error())
		return
	}
	a.textImage.Image = img
	a.textImage.SetMinSize(fyne.NewSize(float32(img.Bounds().Dx()), float32(img.Bounds().Dy())))
	a.textImage.Refresh()
}

func (a *App) updateStatus() {
	a.status.SetSize(a.pixelHeight, a.viewer.Zoom())
}
