// Package resource implements the second encapsulation layer of the
// storage pipeline: it frames one or more fragment bodies into a single
// inner payload, compresses and wraps that payload, uploads it via a
// backend, and commits the resulting Resource plus fragment refs to the
// catalog in one transaction. It also holds the bounded LRU cache of
// unwrapped resource payloads used on download.
package resource

import (
	"encoding/binary"
	"fmt"

	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/codec"
)

// magic identifies a resource's inner frame, per the wire format: magic
// bytes, format version, compressor identifier, wrapper identifier,
// fragment count, then per fragment a 32-byte hash, an 8-byte length, and
// the body. All multi-byte integers are little-endian.
var magic = [4]byte{'F', 'V', 'R', '1'}

// formatVersion is the inner-frame layout version, independent of the
// catalog's schema version.
const formatVersion = 1

// Entry is one fragment body and its dedup hash, in the order it should
// appear in the resource's inner payload.
type Entry struct {
	Hash catalog.Hash
	Body []byte
}

var compressorBytes = map[codec.Compressor]byte{
	codec.CompressNone: 0,
	codec.CompressGZIP: 1,
	codec.CompressLZW:  2,
	codec.CompressZSTD: 3,
}

var byteCompressors = map[byte]codec.Compressor{
	0: codec.CompressNone,
	1: codec.CompressGZIP,
	2: codec.CompressLZW,
	3: codec.CompressZSTD,
}

var wrapperBytes = map[codec.Wrapper]byte{
	codec.WrapIdentity: 0,
	codec.WrapPNG:      1,
	codec.WrapSVG:      2,
}

var byteWrappers = map[byte]codec.Wrapper{
	0: codec.WrapIdentity,
	1: codec.WrapPNG,
	2: codec.WrapSVG,
}

// EncodeFrame concatenates entries into a resource's inner payload per the
// wire format, returning the frame bytes and the fragment layout (offset
// and length of each fragment body within the frame) for the catalog.
func EncodeFrame(entries []Entry, compressor codec.Compressor, wrapper codec.Wrapper) ([]byte, []catalog.FragmentLayoutEntry, error) {
	cb, ok := compressorBytes[compressor]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownCompressorByte, compressor)
	}
	wb, ok := wrapperBytes[wrapper]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownWrapperByte, wrapper)
	}

	size := 4 + 1 + 1 + 1 + 4
	for _, e := range entries {
		size += 32 + 8 + len(e.Body)
	}
	frame := make([]byte, 0, size)
	frame = append(frame, magic[:]...)
	frame = append(frame, formatVersion, cb, wb)
	countBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(countBuf, uint32(len(entries)))
	frame = append(frame, countBuf...)

	layout := make([]catalog.FragmentLayoutEntry, len(entries))
	for i, e := range entries {
		frame = append(frame, e.Hash[:]...)
		lenBuf := make([]byte, 8)
		binary.LittleEndian.PutUint64(lenBuf, uint64(len(e.Body)))
		frame = append(frame, lenBuf...)
		offset := int64(len(frame))
		frame = append(frame, e.Body...)
		layout[i] = catalog.FragmentLayoutEntry{Hash: e.Hash, Offset: offset, Length: int64(len(e.Body))}
	}

	return frame, layout, nil
}

// DecodeFrame reverses EncodeFrame, returning the compressor and wrapper
// identifiers recorded in the header alongside the fragment entries.
func DecodeFrame(frame []byte) (codec.Compressor, codec.Wrapper, []Entry, error) {
	if len(frame) < 4+1+1+1+4 || [4]byte{frame[0], frame[1], frame[2], frame[3]} != magic {
		return "", "", nil, fmt.Errorf("%w: bad magic", ErrResourceCorrupt)
	}
	pos := 4
	version := frame[pos]
	pos++
	if version != formatVersion {
		return "", "", nil, fmt.Errorf("%w: frame version %d unsupported", ErrResourceCorrupt, version)
	}
	compressor, ok := byteCompressors[frame[pos]]
	if !ok {
		return "", "", nil, fmt.Errorf("%w: byte %d", ErrUnknownCompressorByte, frame[pos])
	}
	pos++
	wrapper, ok := byteWrappers[frame[pos]]
	if !ok {
		return "", "", nil, fmt.Errorf("%w: byte %d", ErrUnknownWrapperByte, frame[pos])
	}
	pos++
	count := binary.LittleEndian.Uint32(frame[pos : pos+4])
	pos += 4

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+32+8 > len(frame) {
			return "", "", nil, fmt.Errorf("%w: truncated fragment header", ErrResourceCorrupt)
		}
		var hash catalog.Hash
		copy(hash[:], frame[pos:pos+32])
		pos += 32
		length := binary.LittleEndian.Uint64(frame[pos : pos+8])
		pos += 8
		if uint64(pos)+length > uint64(len(frame)) {
			return "", "", nil, fmt.Errorf("%w: fragment %x declares %d bytes past frame end", ErrResourceCorrupt, hash, length)
		}
		body := frame[pos : pos+int(length)]
		pos += int(length)
		entries = append(entries, Entry{Hash: hash, Body: body})
	}

	return compressor, wrapper, entries, nil
}
