package mpegps

import (
	"encoding/binary"
	"log/slog"

	"discmenu/internal/logging"
)

// Stream identifiers from ISO/IEC 13818-1.
const (
	packStartCode    = 0xBA
	systemHeaderCode = 0xBB
	programEndCode   = 0xB9
	paddingStreamID  = 0xBE
	privateStream1   = 0xBD
	privateStream2   = 0xBF

	// SPU substream identifiers occupy 0x20-0x3F inside private stream 1.
	SubstreamMin = 0x20
	SubstreamMax = 0x3F
)

// Fragment is one private-stream-1 payload slice carrying SPU data. Bytes
// reference the input buffer; callers must not mutate them.
type Fragment struct {
	SubstreamID byte
	Bytes       []byte
}

// Demux walks an MPEG-2 Program Stream buffer and returns every SPU payload
// fragment in file order. Malformed structure is never fatal: the scanner
// resynchronizes on the next start code and keeps going, so a corrupt VOB
// yields a partial (possibly empty) fragment list.
func Demux(data []byte, logger *slog.Logger) []Fragment {
	if logger == nil {
		logger = logging.NewNop()
	}
	var fragments []Fragment
	pos := 0
	for {
		start, ok := nextStartCode(data, pos)
		if !ok {
			break
		}
		if start > pos {
			logger.Debug("resynchronized program stream",
				logging.Int(logging.FieldOffset, start),
				logging.Int("skipped_bytes", start-pos))
		}
		streamID := data[start+3]
		switch streamID {
		case packStartCode:
			next, ok := skipPackHeader(data, start)
			if !ok {
				return fragments
			}
			pos = next
		case programEndCode:
			pos = start + 4
		default:
			next, fragment, ok := readPESPacket(data, start)
			if !ok {
				return fragments
			}
			if fragment != nil {
				fragments = append(fragments, *fragment)
			}
			pos = next
		}
	}
	return fragments
}

// nextStartCode finds the next 0x000001 prefix at or after pos with a stream
// id byte available.
func nextStartCode(data []byte, pos int) (int, bool) {
	for i := pos; i+4 <= len(data); i++ {
		if data[i] == 0x00 && data[i+1] == 0x00 && data[i+2] == 0x01 {
			return i, true
		}
	}
	return 0, false
}

// skipPackHeader advances past an MPEG-2 pack header: 14 fixed bytes (of
// which the last carries the stuffing length in its low 3 bits) plus the
// stuffing bytes themselves.
func skipPackHeader(data []byte, start int) (int, bool) {
	if start+14 > len(data) {
		return 0, false
	}
	stuffing := int(data[start+13] & 0x07)
	next := start + 14 + stuffing
	if next > len(data) {
		return 0, false
	}
	return next, true
}

// readPESPacket consumes one PES packet beginning at start and returns the
// offset just past it, plus an SPU fragment when the packet carries one.
func readPESPacket(data []byte, start int) (int, *Fragment, bool) {
	if start+6 > len(data) {
		return 0, nil, false
	}
	streamID := data[start+3]
	pesLen := int(binary.BigEndian.Uint16(data[start+4 : start+6]))
	payloadStart := start + 6
	packetEnd := payloadStart + pesLen
	if pesLen == 0 || packetEnd > len(data) {
		packetEnd = len(data)
	}

	if streamID != privateStream1 {
		// Video (0xE0-0xEF), audio (0xC0-0xDF), padding, system headers,
		// and private stream 2 are all skipped by declared length.
		return packetEnd, nil, true
	}

	// Private stream 1: two flag bytes, then the PES-header-data length.
	if payloadStart+3 > packetEnd {
		return packetEnd, nil, true
	}
	headerLen := int(data[payloadStart+2])
	substreamPos := payloadStart + 3 + headerLen
	if substreamPos >= packetEnd {
		return packetEnd, nil, true
	}
	substreamID := data[substreamPos]
	if substreamID < SubstreamMin || substreamID > SubstreamMax {
		return packetEnd, nil, true
	}
	payload := data[substreamPos+1 : packetEnd]
	if len(payload) == 0 {
		return packetEnd, nil, true
	}
	return packetEnd, &Fragment{SubstreamID: substreamID, Bytes: payload}, true
}
