package desktop

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// hudInterval is how often the HUD text is rebuilt, in seconds.
const hudInterval = 0.5

// HUD displays the current FPS and TPS plus optional status lines in the
// top-left corner. The text is refreshed every half second.
type HUD struct {
	status func() []string
	text   string
	since  float64

	img   *ebiten.Image
	drawn string
}

// NewHUD creates a HUD. status may be nil.
func NewHUD(status func() []string) *HUD {
	return &HUD{status: status, since: hudInterval}
}

// Update rebuilds the text once the refresh interval has passed.
func (h *HUD) Update(dt float64) {
	h.since += dt
	if h.since < hudInterval {
		return
	}
	h.since = 0
	var lines []string
	if h.status != nil {
		lines = h.status()
	}
	h.text = hudText(ebiten.ActualFPS(), ebiten.ActualTPS(), lines)
}

// Text returns the text drawn by the last refresh.
func (h *HUD) Text() string { return h.text }

func hudText(fps, tps float64, status []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FPS: %.1f\nTPS: %.1f", fps, tps)
	for _, l := range status {
		b.WriteByte('\n')
		b.WriteString(l)
	}
	return b.String()
}

// hudBackground keeps the text readable over bright fields.
var hudBackground = color.RGBA{0, 0, 0, 128}

// Draw prints the HUD onto screen. The text image is rebuilt only when the
// text changed.
func (h *HUD) Draw(screen *ebiten.Image) {
	if h.text == "" {
		return
	}
	if h.img == nil || h.drawn != h.text {
		lines := strings.Split(h.text, "
")
		width := 0
		for _, l := range lines {
			width = max(width, len(l))
		}
		if h.img != nil {
			h.img.Deallocate()
		}
		// The debug font is 6x16 pixels per glyph.
		h.img = ebiten.NewImage(width*6+4, len(lines)*16)
		h.img.Fill(hudBackground)
		ebitenutil.DebugPrint(h.img, h.text)
		h.drawn = h.text
	}
	screen.DrawImage(h.img, nil)
}
