package gui

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Toolbar holds the glyph navigation, pixel size and view controls. The
// On* hooks are read when a control fires, so they may be set after
// NewToolbar.
type Toolbar struct {
	OnOpen, OnFirst, OnPrev, OnNext, OnLast func()
	OnSmaller, OnLarger                     func()
	OnZoomIn, OnZoomOut, OnFit              func()
	OnGoTo                                  func(glyph int)
	OnFindRune                              func(r rune)
	OnGuides, OnPrefilter                   func(on bool)

	box        *fyne.Container
	glyphEntry *widget.Entry
	glyphCount *widget.Label
	runeEntry  *widget.Entry
	prev, next *widget.Button
	guides     *widget.Check
}

func NewToolbar() *Toolbar {
	t := &Toolbar{}
	hook := func(label string, icon fyne.Resource, f *func()) *widget.Button {
		return widget.NewButtonWithIcon(label, icon, func() {
			if *f != nil {
				(*f)()
			}
		})
	}
	toggle := func(label string, f *func(bool)) *widget.Check {
		return widget.NewCheck(label, func(on bool) {
			if *f != nil {
				(*f)(on)
			}
		})
	}

	t.prev = hook("", theme.NavigateBackIcon(), &t.OnPrev)
	t.next = hook("", theme.NavigateNextIcon(), &t.OnNext)
	t.guides = toggle("Guides", &t.OnGuides)

	t.glyphEntry = widget.NewEntry()
	t.glyphEntry.SetPlaceHolder("Glyph")
	t.glyphEntry.OnSubmitted = func(s string) {
		if g, err := strconv.Atoi(s); err == nil && t.OnGoTo != nil {
			t.OnGoTo(g)
		}
	}
	t.glyphCount = widget.NewLabel("of 0")

	t.runeEntry = widget.NewEntry()
	t.runeEntry.SetPlaceHolder("Char")
	t.runeEntry.OnSubmitted = func(s string) {
		if r, _ := utf8.DecodeRuneInString(s); r != utf8.RuneError && t.OnFindRune != nil {
			t.OnFindRune(r)
		}
	}

	t.box = container.NewHBox(
		hook("Open", theme.FolderOpenIcon(), &t.OnOpen),
		widget.NewSeparator(),
		hook("", theme.MediaSkipPreviousIcon(), &t.OnFirst),
		t.prev,
		t.glyphEntry, t.glyphCount,
		t.next,
		hook("", theme.MediaSkipNextIcon(), &t.OnLast),
		t.runeEntry,
		widget.NewSeparator(),
		hook("px", theme.ContentRemoveIcon(), &t.OnSmaller),
		hook("px", theme.ContentAddIcon(), &t.OnLarger),
		hook("", theme.ZoomOutIcon(), &t.OnZoomOut),
		hook("", theme.ZoomInIcon(), &t.OnZoomIn),
		hook("Fit", theme.ViewRestoreIcon(), &t.OnFit),
		widget.NewSeparator(),
		t.guides,
		toggle("Prefilter", &t.OnPrefilter),
	)
	return t
}

func (t *Toolbar) Container() *fyne.Container { return t.box }

// SetGlyph shows glyph current of total and disables the step buttons at
// either end.
func (t *Toolbar) SetGlyph(current, total int) {
	t.glyphEntry.SetText(strconv.Itoa(current))
	t.glyphCount.SetText(fmt.Sprintf("of %d", total))
	setEnabled(t.prev, current > 0)
	setEnabled(t.next, current < total-1)
}

// SetGuides checks or clears the guides box without calling OnGuides.
func (t *Toolbar) SetGuides(on bool) {
	hook := t.OnGuides
	t.OnGuides = nil
	t.guides.SetChecked(on)
	t.OnGuides = hook
}

// Enable turns the glyph controls on once a font is loaded.
func (t *Toolbar) Enable() { t.setFontControls(true) }

// Disable turns the glyph controls off and clears the glyph position.
func (t *Toolbar) Disable() {
	t.setFontControls(false)
	t.glyphEntry.SetText("")
	t.glyphCount.SetText("of 0")
}

func (t *Toolbar) setFontControls(on bool) {
	for _, w := range []fyne.Disableable{t.prev, t.next, t.glyphEntry, t.runeEntry} {
		setEnabled(w, on)
	}
}

func setEnabled(w fyne.Disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}

// StatusBar shows the last message and the current size and zoom.
type StatusBar struct {
	box     *fyne.Container
	message *widget.Label
	size    *widget.Label
}

func NewStatusBar() *StatusBar {
	s := &StatusBar{message: widget.NewLabel("Ready"), size: widget.NewLabel("32px")}
	s.box = container.NewHBox(s.message, widget.NewSeparator(), s.size)
	return s
}

func (s *StatusBar) Container() *fyne.Container { return s.box }

func (s *StatusBar) SetStatus(msg string) { s.message.SetText(msg) }

// SetSize shows the pixel height and the viewer zoom in percent.
func (s *StatusBar) SetSize(pixelHeight, zoom float64) {
	s.size.SetText(fmt.Sprintf("%.0fpx @ %d%%", pixelHeight, int(zoom*100)))
}
