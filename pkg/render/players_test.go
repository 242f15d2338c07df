package render

import (
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

func TestRemotePlayersDrain(t *testing.T) {
	p := newRemotePlayers(zap.NewNop())

	if p.drain() {
		t.Fatal("empty queue should report no change")
	}

	p.AddPlayer(2, mgl32.Vec3{1, 2, 3}, "two")
	p.AddPlayer(1, mgl32.Vec3{4, 5, 6}, "one")
	p.MovePlayer(2, mgl32.Vec3{7, 8, 9})

	if !p.drain() {
		t.Fatal("expected a change")
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 players, got %d", p.Len())
	}

	base := markerInstances(0, gridSpacing)
	instances := p.appendInstances(base[:len(base):len(base)])
	if len(instances) != len(base)+2 {
		t.Fatalf("expected %d instances, got %d", len(base)+2, len(instances))
	}
	// ordered by entity id
	if instances[len(base)].Offset != (mgl32.Vec3{4, 5, 6}) {
		t.Errorf("unexpected first player %v", instances[len(base)].Offset)
	}
	if instances[len(base)+1].Offset != (mgl32.Vec3{7, 8, 9}) {
		t.Errorf("unexpected second player %v", instances[len(base)+1].Offset)
	}
	if instances[len(base)].Color != playerColor {
		t.Errorf("expected player color, got %v", instances[len(base)].Color)
	}
}

func TestRemotePlayersRemoveAndRename(t *testing.T) {
	p := newRemotePlayers(zap.NewNop())
	p.AddPlayer(5, mgl32.Vec3{}, "old")
	p.drain()

	p.RenamePlayer(5, "new")
	if p.drain() {
		t.Error("a rename does not change what is drawn")
	}
	if p.players[5].name != "new" {
		t.Errorf("expected renamed player, got %q", p.players[5].name)
	}

	p.RemovePlayer(99)
	if p.drain() {
		t.Error("removing an unknown player should not report a change")
	}

	p.RemovePlayer(5)
	if !p.drain() || p.Len() != 0 {
		t.Errorf("expected player removed, %d left", p.Len())
	}
}

func TestRemotePlayersMoveUnknownAddsPlayer(t *testing.T) {
	p := newRemotePlayers(zap.NewNop())
	p.MovePlayer(3, mgl32.Vec3{1, 1, 1})
	if !p.drain() || p.Len() != 1 {
		t.Fatalf("expected the moved player to appear, got %d", p.Len())
	}
}

func TestRemotePlayersFromOtherGoroutine(t *testing.T) {
	p := newRemotePlayers(zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint32(0); i < 10; i++ {
			p.AddPlayer(i, mgl32.Vec3{float32(i), 0, 0}, "")
		}
	}()
	wg.Wait()

	p.drain()
	if p.Len() != 10 {
		t.Errorf("expected 10 players, got %d", p.Len())
	}
}

func TestRemotePlayersCloseUnblocksSenders(t *testing.T) {
	p := newRemotePlayers(zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		// more than the queue holds, nobody drains
		for i := 0; i < playerQueueSize+10; i++ {
			p.MovePlayer(1, mgl32.Vec3{})
		}
	}()

	time.Sleep(10 * time.Millisecond)
	p.close()
	p.close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sender still blocked after close")
	}
}
