// Package panellink implements the serial protocol between the daemon and
// the panel controller. Packets are little-endian with a CRC32 trailer.
package panellink

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"libdb.so/tileglow/internal/panel"
)

// Endianness defines the endianness of the protocol.
var Endianness = binary.LittleEndian

// HostPacketType is a type of packet sent by the host.
type HostPacketType uint8

const (
	TypeInitializePacket HostPacketType = iota
	TypeClearPacket
	TypeFramePacket
)

// String returns a string representation of the packet type.
func (t HostPacketType) String() string {
	switch t {
	case TypeInitializePacket:
		return "initialize"
	case TypeClearPacket:
		return "clear"
	case TypeFramePacket:
		return "frame"
	default:
		return fmt.Sprintf("HostPacketType(%d)", t)
	}
}

// HostPacket is a packet sent from the host to the controller.
type HostPacket interface {
	// Type returns the type of packet.
	Type() HostPacketType
}

// InitializePacket tells the controller how many panels to expect in every
// frame packet that follows.
type InitializePacket struct {
	NumPanels uint16
}

// ClearPacket blanks every panel.
type ClearPacket struct{}

// FramePacket carries one rendered color per panel.
type FramePacket struct {
	Frames []panel.Frame
}

func (p InitializePacket) Type() HostPacketType { return TypeInitializePacket }
func (p ClearPacket) Type() HostPacketType      { return TypeClearPacket }
func (p FramePacket) Type() HostPacketType      { return TypeFramePacket }

// wireFrame is the on-wire layout of one panel's frame entry.
type wireFrame struct {
	PanelID    uint16
	R, G, B    uint8
	Transition uint8
}

// DevicePacketType is a type of packet sent by the controller.
type DevicePacketType uint8

const (
	TypeAckPacket DevicePacketType = iota
	TypeErrorPacket
	TypePanicPacket
	TypeLogPacket
)

// String returns a string representation of the packet type.
func (t DevicePacketType) String() string {
	switch t {
	case TypeAckPacket:
		return "ack"
	case TypeErrorPacket:
		return "error"
	case TypePanicPacket:
		return "panic"
	case TypeLogPacket:
		return "log"
	default:
		return fmt.Sprintf("DevicePacketType(%d)", t)
	}
}

// DevicePacket is a packet sent from the controller to the host.
type DevicePacket interface {
	// Type returns the type of packet.
	Type() DevicePacketType
}

// AckPacket acknowledges a host packet.
type AckPacket struct {
	HostPacketType HostPacketType
}

// ErrorPacket indicates an error occurred on the controller.
type ErrorPacket struct {
	Message string
}

// PanicPacket indicates the controller cannot recover.
type PanicPacket struct {
	Message string
}

// LogPacket carries a log message from the controller.
type LogPacket struct {
	Message string
}

func (p AckPacket) Type() DevicePacketType   { return TypeAckPacket }
func (p ErrorPacket) Type() DevicePacketType { return TypeErrorPacket }
func (p PanicPacket) Type() DevicePacketType { return TypePanicPacket }
func (p LogPacket) Type() DevicePacketType   { return TypeLogPacket }

// ReadContext carries the link state the controller side needs to size
// incoming frame packets.
type ReadContext struct {
	// NumPanels is the number of panels announced by the initialize
	// packet.
	NumPanels uint16
}

// ReadHostPacket reads a host packet from the given reader.
func ReadHostPacket(r io.Reader, context ReadContext) (HostPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet HostPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read host packet type: %w", err)
	}

	switch ptype := HostPacketType(ptypeBuf[0]); ptype {
	case TypeInitializePacket:
		var p InitializePacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read panel count: %w", err)
		}
		packet = p

	case TypeClearPacket:
		var p ClearPacket
		packet = p

	case TypeFramePacket:
		var p FramePacket
		p.Frames = make([]panel.Frame, context.NumPanels)
		for i := range p.Frames {
			var wf wireFrame
			if err := binary.Read(r, Endianness, &wf); err != nil {
				return nil, fmt.Errorf("failed to read frame entry: %w", err)
			}
			p.Frames[i] = panel.Frame{
				PanelID:    int(wf.PanelID),
				R:          wf.R,
				G:          wf.G,
				B:          wf.B,
				Transition: int(wf.Transition),
			}
		}
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return nil, fmt.Errorf("failed to read packet checksum: %w", err)
	}

	if checksum != hash.Sum32() {
		return nil, fmt.Errorf("packet checksum mismatch")
	}

	return packet, nil
}

// WriteHostPacket writes a host packet to the given writer.
func WriteHostPacket(w io.Writer, p HostPacket) error {
	hash := crc32.NewIEEE()
	w = io.MultiWriter(w, hash)

	switch p := p.(type) {
	case InitializePacket:
		if err := binary.Write(w, Endianness, TypeInitializePacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case ClearPacket:
		if err := binary.Write(w, Endianness, TypeClearPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
	case FramePacket:
		if err := binary.Write(w, Endianness, TypeFramePacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		for _, f := range p.Frames {
			wf := wireFrame{
				PanelID:    uint16(f.PanelID),
				R:          f.R,
				G:          f.G,
				B:          f.B,
				Transition: uint8(f.Transition),
			}
			if err := binary.Write(w, Endianness, wf); err != nil {
				return fmt.Errorf("failed to write frame entry: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

// ReadDevicePacket reads a device packet from the given reader.
func ReadDevicePacket(r io.Reader) (DevicePacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet DevicePacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read device packet type: %w", err)
	}

	switch ptype := DevicePacketType(ptypeBuf[0]); ptype {
	case TypeAckPacket:
		var p AckPacket
		if err := binary.Read(r, Endianness, &p.HostPacketType); err != nil {
			return nil, fmt.Errorf("failed to read acked packet type: %w", err)
		}
		packet = p

	case TypeErrorPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read error message: %w", err)
		}
		packet = ErrorPacket{Message: msg}

	case TypePanicPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read panic message: %w", err)
		}
		packet = PanicPacket{Message: msg}

	case TypeLogPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read log message: %w", err)
		}
		packet = LogPacket{Message: msg}

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return nil, fmt.Errorf("failed to read packet checksum: %w", err)
	}

	if checksum != hash.Sum32() {
		return nil, fmt.Errorf("packet checksum mismatch")
	}

	return packet, nil
}

// WriteDevicePacket writes a device packet to the given writer.
func WriteDevicePacket(w io.Writer, p DevicePacket) error {
	hash := crc32.NewIEEE()
	w = io.MultiWriter(w, hash)

	switch p := p.(type) {
	case AckPacket:
		if err := binary.Write(w, Endianness, TypeAckPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(w, Endianness, p.HostPacketType); err != nil {
			return fmt.Errorf("failed to write acked packet type: %w", err)
		}
	case ErrorPacket:
		if err := binary.Write(w, Endianness, TypeErrorPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := writeMessage(w, p.Message); err != nil {
			return fmt.Errorf("failed to write error message: %w", err)
		}
	case PanicPacket:
		if err := binary.Write(w, Endianness, TypePanicPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := writeMessage(w, p.Message); err != nil {
			return fmt.Errorf("failed to write panic message: %w", err)
		}
	case LogPacket:
		if err := binary.Write(w, Endianness, TypeLogPacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := writeMessage(w, p.Message); err != nil {
			return fmt.Errorf("failed to write log message: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

func readMessage(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, Endianness, &length); err != nil {
		return "", fmt.Errorf("failed to read length: %w", err)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeMessage(w io.Writer, msg string) error {
	if err := binary.Write(w, Endianness, uint16(len(msg))); err != nil {
		return fmt.Errorf("failed to write length: %w", err)
	}
	_, err := w.Write([]byte(msg))
	return err
}
