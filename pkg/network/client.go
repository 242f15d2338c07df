package network

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const (
	ServerPort = 20000
	ChunkSize  = 16

	nameLength    = 64
	messageLength = 4096

	defaultRenderDistance = 8
)

// ClientBound packet IDs
const (
	PacketIDIdentification       uint8 = 0x00
	PacketIDAddEntity            uint8 = 0x01
	PacketIDRemoveEntity         uint8 = 0x02
	PacketIDUpdateEntityPosition uint8 = 0x03
	PacketIDSendChunk            uint8 = 0x04
	PacketIDSendMonoTypeChunk    uint8 = 0x05
	PacketIDChat                 uint8 = 0x06
	PacketIDUpdateEntityMetadata uint8 = 0x07
)

// ServerBound packet IDs
const (
	PacketIDUpdateEntity   uint8 = 0x00
	PacketIDClientMetadata uint8 = 0x04
)

// ErrConnectionClosed is returned by ProcessPackets when the server hangs up
var ErrConnectionClosed = errors.New("connection closed by server")

// Entity is a remote player as announced by the server
type Entity struct {
	ID         uint32
	Position   mgl32.Vec3
	Yaw, Pitch float32
	Name       string
}

// Client publishes the local camera pose to a game server and reads back
// what other players are doing.
type Client struct {
	conn   io.ReadWriteCloser
	logger *zap.Logger

	writeMu    sync.Mutex
	entityID   atomic.Uint32
	entityName string

	OnIdentified     func(entityID uint32)
	OnEntityAdd      func(entity Entity)
	OnEntityRemove   func(entityID uint32)
	OnEntityUpdate   func(entity Entity)
	OnChat           func(message string)
	OnEntityMetadata func(entityID uint32, name string)
}

// NewClient creates a new client connected to the server at the given address.
// A missing port defaults to ServerPort.
func NewClient(ctx context.Context, address string, logger *zap.Logger) (*Client, error) {
	if !strings.Contains(address, ":") {
		address = fmt.Sprintf("%s:%d", address, ServerPort)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	return newClient(conn, logger), nil
}

func newClient(conn io.ReadWriteCloser, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		conn:   conn,
		logger: logger,
	}
}

// Close closes the connection to the server
func (c *Client) Close() error {
	return c.conn.Close()
}

// SetEntityName sets the name announced in SendClientMetadata
func (c *Client) SetEntityName(name string) {
	c.entityName = name
}

// EntityID returns the id assigned by the server, zero until identified.
// It is safe to call while ProcessPackets runs.
func (c *Client) EntityID() uint32 {
	return c.entityID.Load()
}

// SendClientMetadata sends the client metadata to the server
func (c *Client) SendClientMetadata() error {
	// Packet structure: id(U8) + renderDistance(U8) + name(U8[64])
	packet := make([]byte, 1+1+nameLength)
	packet[0] = PacketIDClientMetadata
	packet[1] = defaultRenderDistance
	copy(packet[2:], c.entityName) // truncated to fit, rest stays zero

	return c.write(packet)
}

// SendUpdateEntity sends the local pose to the server. It matches the
// position callback of the fly controls.
func (c *Client) SendUpdateEntity(position mgl32.Vec3, yaw, pitch float32) error {
	// Packet structure: id(U8) + x(F32) + y(F32) + z(F32) + yaw(F32) + pitch(F32)
	packet := make([]byte, 1+4*5)
	packet[0] = PacketIDUpdateEntity

	binary.BigEndian.PutUint32(packet[1:], math.Float32bits(position.X()))
	binary.BigEndian.PutUint32(packet[5:], math.Float32bits(position.Y()))
	binary.BigEndian.PutUint32(packet[9:], math.Float32bits(position.Z()))
	binary.BigEndian.PutUint32(packet[13:], math.Float32bits(yaw))
	binary.BigEndian.PutUint32(packet[17:], math.Float32bits(pitch))

	return c.write(packet)
}

func (c *Client) write(packet []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.conn.Write(packet); err != nil {
		return fmt.Errorf("failed to write packet 0x%02x: %w", packet[0], err)
	}
	return nil
}

// ProcessPackets reads packets until the connection fails or ctx is done.
// Cancelling ctx closes the connection to unblock the pending read.
func (c *Client) ProcessPackets(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		c.conn.Close()
	})
	defer stop()

	for {
		var packetID uint8
		if err := binary.Read(c.conn, binary.BigEndian, &packetID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return ErrConnectionClosed
			}
			return fmt.Errorf("failed to read packet ID: %w", err)
		}

		if err := c.handlePacket(packetID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

func (c *Client) handlePacket(packetID uint8) error {
	switch packetID {
	case PacketIDIdentification:
		return c.handleIdentification()
	case PacketIDAddEntity:
		return c.handleAddEntity()
	case PacketIDRemoveEntity:
		return c.handleRemoveEntity()
	case PacketIDUpdateEntityPosition:
		return c.handleUpdateEntityPosition()
	case PacketIDSendChunk:
		// x, y, z (I32) followed by one byte per block
		return c.skip(4*3 + ChunkSize*ChunkSize*ChunkSize)
	case PacketIDSendMonoTypeChunk:
		// x, y, z (I32) followed by a single block type
		return c.skip(4*3 + 1)
	case PacketIDChat:
		return c.handleChat()
	case PacketIDUpdateEntityMetadata:
		return c.handleUpdateEntityMetadata()
	default:
		return fmt.Errorf("unknown packet ID: %d", packetID)
	}
}

func (c *Client) handleIdentification() error {
	var entityID uint32
	if err := binary.Read(c.conn, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("failed to read entity ID: %w", err)
	}

	c.entityID.Store(entityID)
	c.logger.Info("identified by server", zap.Uint32("entity_id", entityID))

	if c.OnIdentified != nil {
		c.OnIdentified(entityID)
	}
	return nil
}

// entityPose is the wire layout shared by add and update packets
type entityPose struct {
	ID         uint32
	X, Y, Z    float32
	Yaw, Pitch float32
}

func (c *Client) readEntity() (Entity, error) {
	var pose entityPose
	if err := binary.Read(c.conn, binary.BigEndian, &pose); err != nil {
		return Entity{}, fmt.Errorf("failed to read entity: %w", err)
	}
	return Entity{
		ID:       pose.ID,
		Position: mgl32.Vec3{pose.X, pose.Y, pose.Z},
		Yaw:      pose.Yaw,
		Pitch:    pose.Pitch,
	}, nil
}

func (c *Client) handleAddEntity() error {
	entity, err := c.readEntity()
	if err != nil {
		return err
	}

	name, err := c.readFixedString(nameLength)
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	entity.Name = name

	c.logger.Debug("entity added", zap.Uint32("entity_id", entity.ID), zap.String("name", name))
	if c.OnEntityAdd != nil {
		c.OnEntityAdd(entity)
	}
	return nil
}

func (c *Client) handleRemoveEntity() error {
	var entityID uint32
	if err := binary.Read(c.conn, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("failed to read entity ID: %w", err)
	}

	if c.OnEntityRemove != nil {
		c.OnEntityRemove(entityID)
	}
	return nil
}

func (c *Client) handleUpdateEntityPosition() error {
	entity, err := c.readEntity()
	if err != nil {
		return err
	}

	if c.OnEntityUpdate != nil {
		c.OnEntityUpdate(entity)
	}
	return nil
}

func (c *Client) handleChat() error {
	message, err := c.readFixedString(messageLength)
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}

	if c.OnChat != nil {
		c.OnChat(message)
	}
	return nil
}

func (c *Client) handleUpdateEntityMetadata() error {
	var entityID uint32
	if err := binary.Read(c.conn, binary.BigEndian, &entityID); err != nil {
		return fmt.Errorf("failed to read entity ID: %w", err)
	}

	name, err := c.readFixedString(nameLength)
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}

	if c.OnEntityMetadata != nil {
		c.OnEntityMetadata(entityID, name)
	}
	return nil
}

func (c *Client) skip(n int64) error {
	if _, err := io.CopyN(io.Discard, c.conn, n); err != nil {
		return fmt.Errorf("failed to skip %d bytes: %w", n, err)
	}
	return nil
}

// readFixedString reads a zero padded string of exactly n bytes
func (c *Client) readFixedString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return "", err
	}
	s := string(buf)
	if idx := strings.IndexByte(s, 0); idx >= 0 {
		s = s[:idx]
	}
	return s, nil
}
