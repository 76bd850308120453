package desktop

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/wisp"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

// Updater is advanced once per frame, after the scene distributed input.
type Updater interface {
	Update(frame wisp.FrameInfo)
}

// UpdaterFunc adapts a function to Updater.
type UpdaterFunc func(frame wisp.FrameInfo)

// Update calls f.
func (f UpdaterFunc) Update(frame wisp.FrameInfo) { f(frame) }

// Overlay supplies extra lines drawn in a field's space, such as a surface
// router's debug lines.
type Overlay struct {
	Field wisp.FieldID
	Lines func() []wisp.Line
}

// Options configures an App.
type Options struct {
	Title         string
	Width, Height int
	Keys          Keys
	// TipDepth is how far along its screen ray a touch becomes a tip.
	TipDepth float64
	// Status supplies extra HUD lines.
	Status func() []string
	Logger *zap.Logger
}

// recenterDuration is how long the camera takes to face forward again.
const recenterDuration = 0.4

var clearColor = color.RGBA{0x12, 0x12, 0x18, 0xff}

// App runs a scene in a window. It implements ebiten.Game.
type App struct {
	scene  *wisp.Scene
	camera *Camera
	hud    *HUD
	logger *zap.Logger
	opts   Options

	updaters []Updater
	overlays []Overlay

	elapsed time.Duration

	postMu sync.Mutex
	posted []func()
}

// NewApp creates an app showing scene.
func NewApp(scene *wisp.Scene, opts Options) *App {
	if opts.Title == "" {
		opts.Title = "wisp"
	}
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1280, 720
	}
	if opts.Keys == (Keys{}) {
		opts.Keys = DefaultKeys
	}
	if opts.TipDepth == 0 {
		opts.TipDepth = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	a := &App{
		scene:  scene,
		camera: NewCamera(Rect{Width: float64(opts.Width), Height: float64(opts.Height)}),
		logger: opts.Logger.Named("desktop"),
		opts:   opts,
	}
	a.hud = NewHUD(a.status)
	return a
}

// Add registers updaters, run in order every frame.
func (a *App) Add(u ...Updater) {
	a.updaters = append(a.updaters, u...)
}

// AddOverlay registers an overlay.
func (a *App) AddOverlay(o Overlay) {
	a.overlays = append(a.overlays, o)
}

// Camera returns the app's camera.
func (a *App) Camera() *Camera { return a.camera }

// Post queues fn to run at the start of the next frame on the game loop.
// It is safe to call from any goroutine.
func (a *App) Post(fn func()) {
	a.postMu.Lock()
	defer a.postMu.Unlock()
	a.posted = append(a.posted, fn)
}

func (a *App) runPosted() {
	a.postMu.Lock()
	fns := a.posted
	a.posted = nil
	a.postMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (a *App) status() []string {
	var lines []string
	if a.opts.Status != nil {
		lines = a.opts.Status()
	}
	return append(lines, fmt.Sprintf("yaw %.0f pitch %.0f", mgl64.RadToDeg(a.camera.Yaw), mgl64.RadToDeg(a.camera.Pitch)))
}

// Step advances one frame of dt seconds with the given input.
func (a *App) Step(st InputState, dt float64) {
	a.runPosted()

	if st.Recenter && !a.camera.Turning() {
		a.camera.TurnTo(0, 0, recenterDuration, ease.OutQuad)
	}
	a.camera.Turn(st.Turn.X()*dt, st.Turn.Y()*dt)
	a.camera.Update(float32(dt))
	a.scene.SetViewerPose(a.camera.Position, a.camera.Orientation())

	a.elapsed += time.Duration(dt * float64(time.Second))
	frame := wisp.FrameInfo{Delta: dt, Elapsed: a.elapsed}
	a.scene.Feed(a.camera.Samples(st, a.opts.TipDepth))
	a.scene.Update(frame)
	for _, u := range a.updaters {
		u.Update(frame)
	}
	a.hud.Update(dt)
}

// Update implements ebiten.Game.
func (a *App) Update() error {
	a.Step(PollInput(a.opts.Keys), 1/float64(ebiten.TPS()))
	return nil
}

// Segments returns everything the next Draw strokes, in world space.
func (a *App) Segments() []Segment {
	views := a.scene.Snapshot()
	byField := make(map[wisp.FieldID]wisp.FieldView, len(views))
	var segs []Segment
	for _, v := range views {
		byField[v.Field] = v
		if v.Enabled {
			segs = append(segs, FieldSegments(v)...)
		}
	}
	for _, o := range a.overlays {
		if v, ok := byField[o.Field]; ok && v.Enabled {
			segs = append(segs, LineSegments(v, o.Lines())...)
		}
	}
	return segs
}

// Draw implements ebiten.Game.
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(clearColor)
	DrawSegments(screen, a.camera, a.Segments(), 1.5)
	a.hud.Draw(screen)
}

// Layout implements ebiten.Game.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.camera.SetViewport(Rect{Width: float64(outsideWidth), Height: float64(outsideHeight)})
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it closes.
func (a *App) Run() error {
	ebiten.SetWindowSize(a.opts.Width, a.opts.Height)
	ebiten.SetWindowTitle(a.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	a.logger.Info("window opened", zap.String("title", a.opts.Title), zap.Int("width", a.opts.Width), zap.Int("height", a.opts.Height))
	if err := ebiten.RunGame(a); err != nil {
		return fmt.Errorf("run desktop app: %w", err)
	}
	return nil
}
