package render

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/leterax/flycontrols/internal/openglhelper"
	"github.com/leterax/flycontrols/pkg/controls"
	"github.com/leterax/flycontrols/pkg/input"
)

// PositionSink receives the camera pose whenever the fly controls move it
type PositionSink interface {
	SendUpdateEntity(position mgl32.Vec3, yaw, pitch float32) error
}

// Options configures a Renderer
type Options struct {
	Width, Height int
	Title         string
	VSync         bool

	FOV, Near, Far float32
	Position       mgl32.Vec3
	LookAt         mgl32.Vec3

	MovementSpeed float32
	LookSpeed     float32

	// Sink is optional; when set every position change is forwarded to it
	Sink   PositionSink
	Logger *zap.Logger
}

// Renderer owns the window, a fly camera and a field of marker cubes, and
// drives the frame loop.
type Renderer struct {
	window   *openglhelper.Window
	camera   *Camera
	controls *controls.FlyControls
	sink     PositionSink
	logger   *zap.Logger

	cubeShader *openglhelper.Shader
	cubes      *openglhelper.InstancedMesh
	markers    []openglhelper.Instance
	players    *RemotePlayers

	escapeID input.ListenerID

	// Timing
	lastFrameTime float64
	totalTime     float32
}

// NewRenderer creates the window, compiles shaders and binds fly controls
// to the camera.
func NewRenderer(opts Options) (*Renderer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	window, err := openglhelper.NewWindow(opts.Width, opts.Height, opts.Title, opts.VSync, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := window.Size()
	camera := NewCamera(opts.Position, width, height)
	if opts.FOV > 0 {
		camera.SetPerspective(opts.FOV, opts.Near, opts.Far)
	}
	camera.LookAt(opts.LookAt)

	shader, err := openglhelper.NewShader(cubeVertexShader, cubeFragmentShader)
	if err != nil {
		window.Close()
		return nil, fmt.Errorf("failed to load shader: %w", err)
	}

	vertices, indices := openglhelper.CubeGeometry()
	markers := markerInstances(gridRadius, gridSpacing)

	r := &Renderer{
		window:     window,
		camera:     camera,
		sink:       opts.Sink,
		logger:     logger,
		cubeShader: shader,
		cubes:      openglhelper.NewInstancedMesh(vertices, indices, markers),
		markers:    markers,
		players:    newRemotePlayers(logger),
	}

	r.controls = controls.Bind(camera, window, window,
		controls.WithMovementSpeed(opts.MovementSpeed),
		controls.WithLookSpeed(opts.LookSpeed),
		controls.WithLogger(logger),
	)

	r.escapeID = window.AddListener(input.EventKeyDown, r.handleEscape)
	window.SetResizeCallback(r.camera.Resize)
	window.SetFocusCallback(r.handleFocus)

	return r, nil
}

// Camera returns the controlled camera
func (r *Renderer) Camera() *Camera {
	return r.camera
}

// Controls returns the fly controls bound to the camera
func (r *Renderer) Controls() *controls.FlyControls {
	return r.controls
}

// Players returns the set of remote players drawn alongside the markers.
// Its methods may be called from any goroutine.
func (r *Renderer) Players() *RemotePlayers {
	return r.players
}

// Run drives the frame loop until the window closes or ctx is cancelled.
// It must be called from the thread that created the window.
func (r *Renderer) Run(ctx context.Context) {
	r.logger.Info("click the window to capture the mouse, WASD to fly, Escape to release")

	r.lastFrameTime = r.window.Time()
	for !r.window.ShouldClose() {
		select {
		case <-ctx.Done():
			r.logger.Info("render loop cancelled", zap.Error(ctx.Err()))
			return
		default:
		}

		currentTime := r.window.Time()
		deltaTime := float32(currentTime - r.lastFrameTime)
		r.lastFrameTime = currentTime
		r.totalTime += deltaTime

		r.controls.Update(deltaTime, r.onPositionChanged)

		if r.players.drain() {
			r.cubes.SetInstances(r.players.appendInstances(slices.Clip(r.markers)))
		}

		r.render()

		r.window.SwapBuffers()
		r.window.PollEvents()
	}
}

// onPositionChanged runs once for every direction the controls moved in
func (r *Renderer) onPositionChanged(position mgl32.Vec3) {
	rot := r.camera.Rotation()
	r.logger.Debug("camera moved",
		zap.Float32("x", position.X()),
		zap.Float32("y", position.Y()),
		zap.Float32("z", position.Z()),
	)

	if r.sink == nil {
		return
	}
	if err := r.sink.SendUpdateEntity(position, rot.Y, rot.X); err != nil {
		r.logger.Warn("failed to publish position", zap.Error(err))
	}
}

func (r *Renderer) render() {
	r.window.Clear(clearColor)

	r.cubeShader.Use()
	r.cubeShader.SetMat4("view", r.camera.ViewMatrix())
	r.cubeShader.SetMat4("projection", r.camera.ProjectionMatrix())
	r.cubeShader.SetVec3("viewPos", r.camera.Position())
	r.cubeShader.SetVec3("lightPos", lightPos)
	r.cubeShader.SetVec3("lightColor", lightColor)

	r.cubes.Draw()
}

// handleEscape releases a captured pointer first and closes the window on
// a second press.
func (r *Renderer) handleEscape(ev input.Event) {
	if ev.Key != "Escape" {
		return
	}
	if r.window.PointerLocked() {
		r.window.ExitPointerLock()
		return
	}
	r.window.SetShouldClose(true)
}

// handleFocus drops held keys when focus is lost, since their key-up
// events go to another window.
func (r *Renderer) handleFocus(focused bool) {
	if !focused {
		r.controls.Reset()
	}
}

// Cleanup frees all resources
func (r *Renderer) Cleanup() {
	r.controls.Dispose()
	r.window.RemoveListener(r.escapeID)
	r.players.close()

	if r.cubes != nil {
		r.cubes.Delete()
	}
	if r.cubeShader != nil {
		r.cubeShader.Delete()
	}

	r.window.Close()
}

// markerInstances lays out a square field of cubes on the ground plane,
// plus a short pillar at the origin, so motion is easy to judge.
func markerInstances(radius int, spacing float32) []openglhelper.Instance {
	instances := make([]openglhelper.Instance, 0, (2*radius+1)*(2*radius+1)+3)

	extent := float32(radius) * spacing
	for x := -radius; x <= radius; x++ {
		for z := -radius; z <= radius; z++ {
			offset := mgl32.Vec3{float32(x) * spacing, -1, float32(z) * spacing}
			color := mgl32.Vec3{
				0.3 + 0.7*(offset.X()+extent)/(2*extent+1),
				0.4,
				0.3 + 0.7*(offset.Z()+extent)/(2*extent+1),
			}
			instances = append(instances, openglhelper.Instance{Offset: offset, Color: color})
		}
	}

	for y := 0; y < 3; y++ {
		instances = append(instances, openglhelper.Instance{
			Offset: mgl32.Vec3{0, float32(y), 0},
			Color:  mgl32.Vec3{1, 1, 1},
		})
	}

	return instances
}
