package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/leterax/flycontrols/internal/config"
	"github.com/leterax/flycontrols/internal/logger"
	"github.com/leterax/flycontrols/pkg/network"
	"github.com/leterax/flycontrols/pkg/render"
)

func init() {
	// This is needed to ensure that OpenGL functions are called from the same thread
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	serverAddr := flag.String("server", "", "Server to publish the camera position to (empty for offline)")
	playerName := flag.String("name", "", "Player name announced to the server")
	speed := flag.Float64("speed", 0, "Movement speed in units per second")
	look := flag.Float64("look", 0, "Mouse look sensitivity")
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

	// explicitly set flags win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.Network.Server = *serverAddr
		case "name":
			cfg.Network.Name = *playerName
		case "speed":
			cfg.Controls.MovementSpeed = float32(*speed)
		case "look":
			cfg.Controls.LookSpeed = float32(*look)
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("flydemo failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := render.Options{
		Width:         cfg.Window.Width,
		Height:        cfg.Window.Height,
		Title:         cfg.Window.Title,
		VSync:         cfg.Window.VSync,
		FOV:           cfg.Camera.FOV,
		Near:          cfg.Camera.Near,
		Far:           cfg.Camera.Far,
		Position:      mgl32.Vec3(cfg.Camera.Position),
		LookAt:        mgl32.Vec3(cfg.Camera.LookAt),
		MovementSpeed: cfg.Controls.MovementSpeed,
		LookSpeed:     cfg.Controls.LookSpeed,
		Logger:        log,
	}

	var client *network.Client
	if cfg.Network.Server != "" {
		var err error
		client, err = network.NewClient(ctx, cfg.Network.Server, log.Named("network"))
		if err != nil {
			return err
		}
		defer client.Close()

		client.SetEntityName(cfg.Network.Name)
		if err := client.SendClientMetadata(); err != nil {
			return fmt.Errorf("failed to send client metadata: %w", err)
		}

		log.Info("publishing position", zap.String("server", cfg.Network.Server), zap.String("name", cfg.Network.Name))
		opts.Sink = client
	}

	renderer, err := render.NewRenderer(opts)
	if err != nil {
		return err
	}
	defer renderer.Cleanup()

	if client != nil {
		watchServer(ctx, client, renderer.Players(), log)
	}

	renderer.Run(ctx)
	return nil
}

// watchServer mirrors other players into the scene and reads packets until
// ctx is done or the connection drops.
func watchServer(ctx context.Context, client *network.Client, players *render.RemotePlayers, log *zap.Logger) {
	isSelf := func(id uint32) bool {
		return id == client.EntityID()
	}

	// the server may announce us before identifying us
	client.OnIdentified = players.RemovePlayer
	client.OnEntityAdd = func(e network.Entity) {
		if !isSelf(e.ID) {
			players.AddPlayer(e.ID, e.Position, e.Name)
		}
	}
	client.OnEntityUpdate = func(e network.Entity) {
		if !isSelf(e.ID) {
			players.MovePlayer(e.ID, e.Position)
		}
	}
	client.OnEntityRemove = players.RemovePlayer
	client.OnEntityMetadata = players.RenamePlayer
	client.OnChat = func(message string) {
		log.Info("chat", zap.String("message", message))
	}

	go func() {
		err := client.ProcessPackets(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("server connection lost", zap.Error(err))
		}
	}()
}
