package app

import (
	"fmt"
	"image"
	"image/color"

	"duckstudio/workspace"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	libraryItemHeight = workspace.ThumbHeight + 8
	libraryWidth      = workspace.ThumbWidth + 200
	libraryHeader     = 22
	libraryMaxItems   = 4
	libraryMargin     = 8
)

var (
	libraryBackground   = color.RGBA{0, 0, 0, 170}
	libraryItemSelected = color.RGBA{70, 130, 255, 120}
	libraryItemHover    = color.RGBA{255, 255, 255, 40}
	libraryBorder       = color.RGBA{255, 255, 255, 60}
)

// LibraryPanel lists the loaded scene documents, newest first, anchored to
// the bottom-right corner. Clicking a row picks that document.
type LibraryPanel struct {
	visible      bool
	scrollOffset int
	hoveredIndex int
	screenW      int
	screenH      int

	thumbs map[*workspace.SceneDoc]*ebiten.Image
}

func NewLibraryPanel(visible bool) *LibraryPanel {
	return &LibraryPanel{
		visible:      visible,
		hoveredIndex: -1,
		screenW:      800,
		screenH:      600,
		thumbs:       make(map[*workspace.SceneDoc]*ebiten.Image),
	}
}

func (lp *LibraryPanel) IsVisible() bool { return lp.visible }

// Toggle flips visibility and returns the new state.
func (lp *LibraryPanel) Toggle() bool {
	lp.visible = !lp.visible
	return lp.visible
}

func (lp *LibraryPanel) SetScreenSize(w, h int) {
	lp.screenW, lp.screenH = w, h
}

// listRect is the panel's rectangle for n documents.
func (lp *LibraryPanel) listRect(n int) image.Rectangle {
	rows := min(n, libraryMaxItems)
	h := libraryHeader + rows*libraryItemHeight + 4
	x0 := lp.screenW - libraryWidth - libraryMargin
	y0 := lp.screenH - h - libraryMargin
	return image.Rect(x0, y0, x0+libraryWidth, y0+h)
}

// itemRect is the rectangle of visible row i.
func (lp *LibraryPanel) itemRect(i, n int) image.Rectangle {
	r := lp.listRect(n)
	y := r.Min.Y + libraryHeader + i*libraryItemHeight
	return image.Rect(r.Min.X, y, r.Max.X, y+libraryItemHeight)
}

// Update reads the mouse and returns the index of a clicked document, or
// -1.
func (lp *LibraryPanel) Update(n int) int {
	mx, my := ebiten.CursorPosition()
	_, wy := ebiten.Wheel()
	return lp.handle(mx, my, inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft), wy, n)
}

func (lp *LibraryPanel) handle(mx, my int, pressed bool, wheelY float64, n int) int {
	lp.hoveredIndex = -1
	if !lp.visible || n == 0 {
		return -1
	}
	pt := image.Pt(mx, my)
	if !pt.In(lp.listRect(n)) {
		return -1
	}

	if wheelY != 0 {
		lp.scrollOffset -= int(wheelY * 3)
	}
	lp.scrollOffset = min(max(lp.scrollOffset, 0), max(n-libraryMaxItems, 0))

	for i := 0; i < libraryMaxItems && i+lp.scrollOffset < n; i++ {
		if pt.In(lp.itemRect(i, n)) {
			lp.hoveredIndex = i + lp.scrollOffset
			if pressed {
				return lp.hoveredIndex
			}
		}
	}
	return -1
}

// Reveal scrolls so document i is visible.
func (lp *LibraryPanel) Reveal(i int) {
	if i < lp.scrollOffset {
		lp.scrollOffset = i
	} else if i >= lp.scrollOffset+libraryMaxItems {
		lp.scrollOffset = i - libraryMaxItems + 1
	}
}

// rowLines is the text next to a document's thumbnail.
func rowLines(doc *workspace.SceneDoc) []string {
	return []string{
		doc.Name,
		"loaded " + doc.Loaded.Format("15:04:05"),
		fmt.Sprintf("%d parts", doc.Scene.Len()),
	}
}

func (lp *LibraryPanel) thumb(doc *workspace.SceneDoc) *ebiten.Image {
	if img, ok := lp.thumbs[doc]; ok {
		return img
	}
	img := ebiten.NewImageFromImage(doc.Thumb)
	lp.thumbs[doc] = img
	return img
}

// Draw renders the panel. selected is the index of the installed document.
func (lp *LibraryPanel) Draw(screen *ebiten.Image, tr *TextRenderer, lib *workspace.Library, selected int) {
	n := lib.Len()
	if !lp.visible || n == 0 {
		return
	}
	r := lp.listRect(n)
	vector.DrawFilledRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), libraryBackground, false)
	vector.StrokeRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), 1, libraryBorder, false)

	title := fmt.Sprintf("Scenes (%d)", n)
	if n > libraryMaxItems {
		title += fmt.Sprintf("  %d-%d", lp.scrollOffset+1, min(lp.scrollOffset+libraryMaxItems, n))
	}
	tr.DrawText(screen, title, r.Min.X+8, r.Min.Y+15, hudText)

	textW := libraryWidth - workspace.ThumbWidth - 24
	for i := 0; i < libraryMaxItems && i+lp.scrollOffset < n; i++ {
		idx := i + lp.scrollOffset
		doc, _ := lib.At(idx)
		item := lp.itemRect(i, n)

		switch idx {
		case selected:
			vector.DrawFilledRect(screen, float32(item.Min.X), float32(item.Min.Y), float32(item.Dx()), float32(item.Dy()), libraryItemSelected, false)
		case lp.hoveredIndex:
			vector.DrawFilledRect(screen, float32(item.Min.X), float32(item.Min.Y), float32(item.Dx()), float32(item.Dy()), libraryItemHover, false)
		}

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(item.Min.X+4), float64(item.Min.Y+4))
		screen.DrawImage(lp.thumb(doc), op)

		lines := rowLines(doc)
		lines[0] = tr.Ellipsize(lines[0], textW)
		tr.DrawLines(screen, lines, item.Min.X+workspace.ThumbWidth+12, item.Min.Y+6, func(i int) color.Color {
			if i == 0 {
				return hudText
			}
			return hudDim
		})
	}
}
