package spu

import (
	"encoding/binary"
	"log/slog"

	"discmenu/internal/logging"
	"discmenu/internal/mpegps"
)

// Packet is one complete, size-prefixed SPU unit.
type Packet struct {
	SubstreamID   byte
	Raw           []byte
	TotalSize     int
	ControlOffset int
}

// Assembler concatenates demuxed fragments per substream and emits complete
// packets in disc order. A single fragment may finish one packet and begin
// the next; the leftover bytes stay buffered for the following size header.
type Assembler struct {
	logger  *slog.Logger
	buffers map[byte][]byte
}

// NewAssembler returns an assembler logging through the provided logger.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{logger: logger, buffers: make(map[byte][]byte)}
}

// Feed appends one fragment and returns the packets it completed, in order.
func (a *Assembler) Feed(fragment mpegps.Fragment) []Packet {
	buf := append(a.buffers[fragment.SubstreamID], fragment.Bytes...)
	var completed []Packet
	for {
		if len(buf) < 2 {
			break
		}
		total := int(binary.BigEndian.Uint16(buf[:2]))
		if total < 4 {
			// A size below the header size cannot frame a packet; the
			// substream is out of sync. Drop the buffer and wait for the
			// next fragment boundary.
			a.logger.Debug("dropping desynchronized substream buffer",
				logging.Int("substream", int(fragment.SubstreamID)),
				logging.Int("declared_size", total))
			buf = nil
			break
		}
		if len(buf) < total {
			break
		}
		raw := append([]byte(nil), buf[:total]...)
		controlOffset := int(binary.BigEndian.Uint16(raw[2:4]))
		completed = append(completed, Packet{
			SubstreamID:   fragment.SubstreamID,
			Raw:           raw,
			TotalSize:     total,
			ControlOffset: controlOffset,
		})
		buf = buf[total:]
	}
	a.buffers[fragment.SubstreamID] = buf
	return completed
}

// Flush reports any partially assembled packets left at end of input. They
// are dropped, not emitted.
func (a *Assembler) Flush() {
	for substream, buf := range a.buffers {
		if len(buf) > 0 {
			a.logger.Debug("dropping incomplete trailing packet",
				logging.Int("substream", int(substream)),
				logging.Int("buffered_bytes", len(buf)))
		}
		delete(a.buffers, substream)
	}
}

// Assemble demuxes the whole program stream buffer and returns every complete
// SPU packet in disc order across all substreams.
func Assemble(psData []byte, logger *slog.Logger) []Packet {
	assembler := NewAssembler(logger)
	var packets []Packet
	for _, fragment := range mpegps.Demux(psData, logger) {
		packets = append(packets, assembler.Feed(fragment)...)
	}
	assembler.Flush()
	return packets
}
