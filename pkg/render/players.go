package render

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/leterax/flycontrols/internal/openglhelper"
)

// playerQueueSize bounds how far the network reader can run ahead of the
// render loop before it blocks.
const playerQueueSize = 256

var playerColor = mgl32.Vec3{1.0, 0.55, 0.1}

type playerUpdateKind int

const (
	playerAdded playerUpdateKind = iota
	playerMoved
	playerRemoved
	playerRenamed
)

type playerUpdate struct {
	kind     playerUpdateKind
	id       uint32
	position mgl32.Vec3
	name     string
}

type remotePlayer struct {
	position mgl32.Vec3
	name     string
}

// RemotePlayers collects other players' poses from any goroutine and
// applies them on the render thread. Each player is drawn as a cube.
type RemotePlayers struct {
	updates chan playerUpdate
	done    chan struct{}
	closed  bool
	players map[uint32]remotePlayer
	logger  *zap.Logger
}

func newRemotePlayers(logger *zap.Logger) *RemotePlayers {
	return &RemotePlayers{
		updates: make(chan playerUpdate, playerQueueSize),
		done:    make(chan struct{}),
		players: make(map[uint32]remotePlayer),
		logger:  logger,
	}
}

// AddPlayer announces a player at position
func (p *RemotePlayers) AddPlayer(id uint32, position mgl32.Vec3, name string) {
	p.send(playerUpdate{kind: playerAdded, id: id, position: position, name: name})
}

// MovePlayer updates a known player's position
func (p *RemotePlayers) MovePlayer(id uint32, position mgl32.Vec3) {
	p.send(playerUpdate{kind: playerMoved, id: id, position: position})
}

// RemovePlayer drops a player
func (p *RemotePlayers) RemovePlayer(id uint32) {
	p.send(playerUpdate{kind: playerRemoved, id: id})
}

// RenamePlayer changes a known player's name
func (p *RemotePlayers) RenamePlayer(id uint32, name string) {
	p.send(playerUpdate{kind: playerRenamed, id: id, name: name})
}

// send blocks while the queue is full, unless the renderer has shut down
func (p *RemotePlayers) send(u playerUpdate) {
	select {
	case p.updates <- u:
	case <-p.done:
	}
}

// close unblocks pending senders. Must be called from the render thread.
func (p *RemotePlayers) close() {
	if !p.closed {
		p.closed = true
		close(p.done)
	}
}

// drain applies every queued update and reports whether the visible set
// changed. Must be called from the render thread.
func (p *RemotePlayers) drain() bool {
	changed := false
	for {
		select {
		case u := <-p.updates:
			if p.apply(u) {
				changed = true
			}
		default:
			return changed
		}
	}
}

func (p *RemotePlayers) apply(u playerUpdate) bool {
	player, known := p.players[u.id]

	switch u.kind {
	case playerAdded:
		p.players[u.id] = remotePlayer{position: u.position, name: u.name}
		p.logger.Info("player joined", zap.Uint32("entity_id", u.id), zap.String("name", u.name))
		return true
	case playerMoved:
		if !known {
			// updates can arrive for entities announced before we connected
			p.players[u.id] = remotePlayer{position: u.position}
			return true
		}
		player.position = u.position
		p.players[u.id] = player
		return true
	case playerRemoved:
		if !known {
			return false
		}
		delete(p.players, u.id)
		p.logger.Info("player left", zap.Uint32("entity_id", u.id), zap.String("name", player.name))
		return true
	case playerRenamed:
		if known {
			player.name = u.name
			p.players[u.id] = player
		}
		return false
	}
	return false
}

// Len returns the number of players currently shown
func (p *RemotePlayers) Len() int {
	return len(p.players)
}

// appendInstances appends one cube per player, ordered by id
func (p *RemotePlayers) appendInstances(instances []openglhelper.Instance) []openglhelper.Instance {
	ids := make([]uint32, 0, len(p.players))
	for id := range p.players {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		instances = append(instances, openglhelper.Instance{
			Offset: p.players[id].position,
			Color:  playerColor,
		})
	}
	return instances
}
