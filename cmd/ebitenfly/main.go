package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"

	"github.com/leterax/flycontrols/internal/config"
	"github.com/leterax/flycontrols/internal/logger"
	"github.com/leterax/flycontrols/pkg/controls"
	"github.com/leterax/flycontrols/pkg/ebiteninput"
	"github.com/leterax/flycontrols/pkg/input"
	"github.com/leterax/flycontrols/pkg/scene"
)

const (
	screenWidth  = 960
	screenHeight = 540

	gridHalf    = 10
	gridSpacing = 2.0
)

var (
	gridColor   = color.RGBA{0x50, 0x90, 0x60, 0xff}
	originColor = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// Game draws a wireframe ground grid seen through a fly camera
type Game struct {
	input    *ebiteninput.Surface
	camera   *scene.Object3D
	controls *controls.FlyControls
	cfg      *config.Config
	log      *zap.Logger
	quit     bool
}

func NewGame(cfg *config.Config, log *zap.Logger) *Game {
	g := &Game{
		input:  ebiteninput.New(),
		camera: scene.NewObject3D(),
		cfg:    cfg,
		log:    log,
	}
	g.camera.SetPosition(mgl32.Vec3(cfg.Camera.Position))
	g.camera.LookAt(mgl32.Vec3(cfg.Camera.LookAt))

	g.controls = controls.Bind(g.camera, g.input, g.input,
		controls.WithMovementSpeed(cfg.Controls.MovementSpeed),
		controls.WithLookSpeed(cfg.Controls.LookSpeed),
		controls.WithLogger(log),
	)

	g.input.AddListener(input.EventKeyDown, func(ev input.Event) {
		if ev.Key != "Escape" {
			return
		}
		if g.input.PointerLocked() {
			g.input.ExitPointerLock()
			return
		}
		g.quit = true
	})

	return g
}

func (g *Game) Update() error {
	if !ebiten.IsFocused() {
		g.controls.Reset()
	}
	g.input.Poll()
	if g.quit {
		return ebiten.Termination
	}

	g.controls.Update(1/float32(ebiten.TPS()), nil)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	proj := mgl32.Perspective(mgl32.DegToRad(g.cfg.Camera.FOV), float32(w)/float32(h), g.cfg.Camera.Near, g.cfg.Camera.Far)
	mvp := proj.Mul4(g.camera.ViewMatrix())

	extent := float32(gridHalf) * gridSpacing
	for i := -gridHalf; i <= gridHalf; i++ {
		d := float32(i) * gridSpacing
		drawLine(screen, mvp, mgl32.Vec3{d, 0, -extent}, mgl32.Vec3{d, 0, extent}, gridColor)
		drawLine(screen, mvp, mgl32.Vec3{-extent, 0, d}, mgl32.Vec3{extent, 0, d}, gridColor)
	}
	drawLine(screen, mvp, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 3, 0}, originColor)

	pos := g.camera.Position()
	rot := g.camera.Rotation()
	fwd := g.camera.Forward()
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"FPS: %0.2f\npos: %.2f %.2f %.2f\nyaw: %.2f pitch: %.2f\nfacing: %.2f %.2f %.2f\nclick to capture, WASD to fly, Esc to release",
		ebiten.ActualFPS(), pos.X(), pos.Y(), pos.Z(), rot.Y, rot.X, fwd.X(), fwd.Y(), fwd.Z()))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// drawLine projects a world space segment and strokes it. Segments with an
// end behind the camera are skipped rather than clipped.
func drawLine(screen *ebiten.Image, mvp mgl32.Mat4, a, b mgl32.Vec3, clr color.Color) {
	ax, ay, okA := project(screen, mvp, a)
	bx, by, okB := project(screen, mvp, b)
	if !okA || !okB {
		return
	}
	vector.StrokeLine(screen, ax, ay, bx, by, 1, clr, true)
}

func project(screen *ebiten.Image, mvp mgl32.Mat4, p mgl32.Vec3) (float32, float32, bool) {
	clip := mvp.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	w, h := float32(screen.Bounds().Dx()), float32(screen.Bounds().Dy())
	return (ndc.X() + 1) * 0.5 * w, (1 - ndc.Y()) * 0.5 * h, true
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	game := NewGame(cfg, log)
	defer game.controls.Dispose()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle(cfg.Window.Title + " (ebiten)")
	if err := ebiten.RunGame(game); err != nil {
		log.Error("game exited", zap.Error(err))
	}
}
