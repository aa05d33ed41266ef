// Package udp sends compact binary level packets to a UDP listener.
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"

	"hush/internal/log"
	"hush/internal/transport"
)

/*
Packet Structure (BigEndian)

| Field        | Type    | Size | Description                   |
|--------------|---------|------|-------------------------------|
| Sequence     | uint32  | 4    | Publisher sequence, wraps      |
| Timestamp    | int64   | 8    | Nanoseconds since epoch       |
| Strength     | float32 | 4    | Wet/dry mix                   |
| Input level  | float32 | 4    | RMS of the last input buffer  |
| Output level | float32 | 4    | RMS of the last output buffer |
| Flags        | uint8   | 1    | bit 0: active                 |
*/

// PacketSize is the encoded size of one Packet.
const PacketSize = 4 + 8 + 4 + 4 + 4 + 1

// FlagActive is set while audio is flowing.
const FlagActive uint8 = 1 << 0

// Packet is the decoded wire form.
type Packet struct {
	Sequence    uint32
	Timestamp   int64
	Strength    float32
	InputLevel  float32
	OutputLevel float32
	Flags       uint8
}

// PacketFromFrame narrows a frame to the wire form.
func PacketFromFrame(f transport.Frame) Packet {
	p := Packet{
		Sequence:    uint32(f.Sequence),
		Timestamp:   f.Timestamp,
		Strength:    f.Strength,
		InputLevel:  f.InputLevel,
		OutputLevel: f.OutputLevel,
	}
	if f.Active {
		p.Flags |= FlagActive
	}
	return p
}

// Encode appends the big-endian encoding of p to buf.
func (p Packet) Encode(buf *bytes.Buffer) error {
	return binary.Write(buf, binary.BigEndian, p)
}

// DecodePacket parses one packet.
func DecodePacket(b []byte) (Packet, error) {
	var p Packet
	if len(b) != PacketSize {
		return p, fmt.Errorf("udp: packet is %d bytes, want %d", len(b), PacketSize)
	}
	err := binary.Read(bytes.NewReader(b), binary.BigEndian, &p)
	return p, err
}

// Sender handles sending data packets over UDP.
type Sender struct {
	conn   *net.UDPConn
	mu     sync.Mutex // protects conn and buf
	buf    bytes.Buffer
	closed bool
}

// NewSender creates a Sender targeting "host:port".
func NewSender(targetAddress string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	log.Component("udp").Infof("sending to %s", conn.RemoteAddr())
	return &Sender{conn: conn}, nil
}

// Send encodes frames as packets; raw byte slices are sent verbatim.
func (s *Sender) Send(data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("udp: sender is closed")
	}

	var payload []byte
	switch v := data.(type) {
	case transport.Frame:
		s.buf.Reset()
		if err := PacketFromFrame(v).Encode(&s.buf); err != nil {
			return fmt.Errorf("udp: encode: %w", err)
		}
		payload = s.buf.Bytes()
	case []byte:
		payload = v
	default:
		return fmt.Errorf("udp: unsupported payload %T", data)
	}

	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	return nil
}

// Close closes the underlying UDP connection.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}

var _ transport.Transport = (*Sender)(nil)
