package network

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"net"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

func newPipeClient(t *testing.T) (*Client, net.Conn) {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() {
		local.Close()
		remote.Close()
	})
	return newClient(local, nil), remote
}

// readPacket reads n bytes from the server side of the pipe
func readPacket(t *testing.T, conn net.Conn, n int, send func() error) []byte {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- send() }()

	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("send failed: %v", err)
	}
	return buf
}

func TestSendUpdateEntity(t *testing.T) {
	client, server := newPipeClient(t)

	packet := readPacket(t, server, 21, func() error {
		return client.SendUpdateEntity(mgl32.Vec3{1, -2, 3.5}, -1, 0.25)
	})

	if packet[0] != PacketIDUpdateEntity {
		t.Fatalf("expected packet id %d, got %d", PacketIDUpdateEntity, packet[0])
	}

	want := []float32{1, -2, 3.5, -1, 0.25}
	for i, w := range want {
		got := math.Float32frombits(binary.BigEndian.Uint32(packet[1+4*i:]))
		if got != w {
			t.Errorf("field %d: expected %f, got %f", i, w, got)
		}
	}
}

func TestSendClientMetadata(t *testing.T) {
	client, server := newPipeClient(t)
	client.SetEntityName("pilot")

	packet := readPacket(t, server, 66, client.SendClientMetadata)

	if packet[0] != PacketIDClientMetadata {
		t.Fatalf("unexpected packet id %d", packet[0])
	}
	if packet[1] != defaultRenderDistance {
		t.Errorf("expected render distance %d, got %d", defaultRenderDistance, packet[1])
	}
	if string(packet[2:7]) != "pilot" {
		t.Errorf("unexpected name bytes %q", packet[2:7])
	}
	for _, b := range packet[7:] {
		if b != 0 {
			t.Fatal("name padding should be zero")
		}
	}
}

func TestSendClientMetadataTruncatesName(t *testing.T) {
	client, server := newPipeClient(t)

	long := make([]byte, nameLength+10)
	for i := range long {
		long[i] = 'n'
	}
	client.SetEntityName(string(long))

	packet := readPacket(t, server, 2+nameLength, client.SendClientMetadata)
	if packet[1+nameLength] != 'n' {
		t.Error("expected name to fill the whole field")
	}
}

func TestProcessPackets(t *testing.T) {
	client, server := newPipeClient(t)

	var identified uint32
	var updates []Entity
	var added []Entity
	var chats []string
	client.OnIdentified = func(id uint32) { identified = id }
	client.OnEntityAdd = func(e Entity) { added = append(added, e) }
	client.OnEntityUpdate = func(e Entity) { updates = append(updates, e) }
	client.OnChat = func(msg string) { chats = append(chats, msg) }

	go func() {
		var buf []byte
		buf = append(buf, PacketIDIdentification)
		buf = binary.BigEndian.AppendUint32(buf, 42)

		buf = append(buf, PacketIDAddEntity)
		buf = appendPose(buf, 7, 1, 2, 3, 0.5, -0.5)
		name := make([]byte, nameLength)
		copy(name, "other")
		buf = append(buf, name...)

		buf = append(buf, PacketIDUpdateEntityPosition)
		buf = appendPose(buf, 7, 4, 5, 6, 1, 0)

		buf = append(buf, PacketIDSendMonoTypeChunk)
		buf = append(buf, make([]byte, 13)...)

		buf = append(buf, PacketIDChat)
		msg := make([]byte, messageLength)
		copy(msg, "hello")
		buf = append(buf, msg...)

		server.Write(buf)
		server.Close()
	}()

	err := client.ProcessPackets(context.Background())
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}

	if identified != 42 || client.EntityID() != 42 {
		t.Errorf("expected entity id 42, got %d / %d", identified, client.EntityID())
	}
	if len(added) != 1 || added[0].Name != "other" || added[0].Position != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("unexpected added entities %+v", added)
	}
	if len(updates) != 1 || updates[0].ID != 7 || updates[0].Position != (mgl32.Vec3{4, 5, 6}) || updates[0].Yaw != 1 {
		t.Errorf("unexpected updates %+v", updates)
	}
	if len(chats) != 1 || chats[0] != "hello" {
		t.Errorf("unexpected chats %v", chats)
	}
}

func TestProcessPacketsUnknownID(t *testing.T) {
	client, server := newPipeClient(t)

	go server.Write([]byte{0xff})

	err := client.ProcessPackets(context.Background())
	if err == nil || errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("expected unknown packet error, got %v", err)
	}
}

func TestProcessPacketsCancel(t *testing.T) {
	client, _ := newPipeClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.ProcessPackets(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessPackets did not return after cancel")
	}
}

func appendPose(buf []byte, id uint32, x, y, z, yaw, pitch float32) []byte {
	buf = binary.BigEndian.AppendUint32(buf, id)
	for _, f := range []float32{x, y, z, yaw, pitch} {
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func TestEntityIDReadableWhileProcessing(t *testing.T) {
	client, server := newPipeClient(t)

	done := make(chan error, 1)
	go func() { done <- client.ProcessPackets(context.Background()) }()

	buf := []byte{PacketIDIdentification}
	buf = binary.BigEndian.AppendUint32(buf, 9)
	if _, err := server.Write(buf); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for client.EntityID() != 9 {
		if time.Now().After(deadline) {
			t.Fatalf("entity id never became visible, got %d", client.EntityID())
		}
		time.Sleep(time.Millisecond)
	}

	server.Close()
	if err := <-done; !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("expected ErrConnectionClosed, got %v", err)
	}
}
