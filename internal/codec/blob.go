package codec

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/rasterlite/rl2go/internal/raster"
)

// blobHeaderSize is the fixed 80-byte header preceding every blob's
// payload region, grounded on internal/pmtiles/header.go's fixed-offset
// binary layout (magic, encoding/binary fields, trailing CRC32), extended
// per spec §4.D with sample/pixel/band/dimension/flag fields so a blob is
// self-describing without consulting a Coverage Descriptor.
const blobHeaderSize = 80

var (
	magicOdd  = [2]byte{0x00, 0xd2}
	magicEven = [2]byte{0x00, 0xd3}
)

const (
	flagHasMask    = 1 << 0
	flagHasNoData  = 1 << 1
	flagHasPalette = 1 << 2
)

// blobHeader is the parsed form of the fixed 80-byte header.
type blobHeader struct {
	odd          bool
	littleEndian bool
	compression  Compression
	sample       raster.SampleKind
	kind         raster.PixelKind
	bands        int
	width        int
	height       int
	hasMask      bool
	hasNoData    bool
	hasPalette   bool
	payloadLen   uint32
	maskLen      uint32
	nodataLen    uint32
}

func putBlobHeader(h blobHeader) []byte {
	buf := make([]byte, blobHeaderSize)
	if h.odd {
		buf[0], buf[1] = magicOdd[0], magicOdd[1]
	} else {
		buf[0], buf[1] = magicEven[0], magicEven[1]
	}
	if h.littleEndian {
		buf[2] = 0x01
	} else {
		buf[2] = 0x00
	}
	buf[3] = byte(h.compression)
	buf[4] = byte(h.sample)
	buf[5] = byte(h.kind)
	buf[6] = byte(h.bands)
	binary.BigEndian.PutUint16(buf[7:9], uint16(h.width))
	binary.BigEndian.PutUint16(buf[9:11], uint16(h.height))

	var flags byte
	if h.hasMask {
		flags |= flagHasMask
	}
	if h.hasNoData {
		flags |= flagHasNoData
	}
	if h.hasPalette {
		flags |= flagHasPalette
	}
	buf[11] = flags

	binary.BigEndian.PutUint32(buf[12:16], h.payloadLen)
	binary.BigEndian.PutUint32(buf[16:20], h.maskLen)
	// bytes [20:24) hold the trailing CRC32, filled in by frameBlob.
	binary.BigEndian.PutUint32(buf[24:28], h.nodataLen)
	// bytes [28:80) are reserved, left zero.
	return buf
}

func parseBlobHeader(buf []byte) (blobHeader, error) {
	const op = "parseBlobHeader"
	if len(buf) < blobHeaderSize {
		return blobHeader{}, errf(op, raster.KindCorruptBlob, "blob too short: %d bytes, need >= %d", len(buf), blobHeaderSize)
	}
	var h blobHeader
	switch {
	case buf[0] == magicOdd[0] && buf[1] == magicOdd[1]:
		h.odd = true
	case buf[0] == magicEven[0] && buf[1] == magicEven[1]:
		h.odd = false
	default:
		return blobHeader{}, errf(op, raster.KindCorruptBlob, "bad magic bytes %#x %#x", buf[0], buf[1])
	}
	h.littleEndian = buf[2] == 0x01
	h.compression = Compression(buf[3])
	h.sample = raster.SampleKind(buf[4])
	h.kind = raster.PixelKind(buf[5])
	h.bands = int(buf[6])
	h.width = int(binary.BigEndian.Uint16(buf[7:9]))
	h.height = int(binary.BigEndian.Uint16(buf[9:11]))
	flags := buf[11]
	h.hasMask = flags&flagHasMask != 0
	h.hasNoData = flags&flagHasNoData != 0
	h.hasPalette = flags&flagHasPalette != 0
	h.payloadLen = binary.BigEndian.Uint32(buf[12:16])
	h.maskLen = binary.BigEndian.Uint32(buf[16:20])
	h.nodataLen = binary.BigEndian.Uint32(buf[24:28])
	return h, nil
}

// frameBlob assembles a complete blob: header, payload, optional mask,
// optional no-data sample bytes, optional palette, with the header's CRC32
// field (bytes [20:24)) computed over the whole blob with that field
// zeroed, per spec §4.D.
func frameBlob(h blobHeader, payload, mask, nodata, paletteBlob []byte) []byte {
	h.payloadLen = uint32(len(payload))
	h.maskLen = uint32(len(mask))
	h.nodataLen = uint32(len(nodata))
	buf := putBlobHeader(h)
	buf = append(buf, payload...)
	buf = append(buf, mask...)
	buf = append(buf, nodata...)
	buf = append(buf, paletteBlob...)

	crc := crc32.ChecksumIEEE(buf)
	binary.BigEndian.PutUint32(buf[20:24], crc)
	return buf
}

// unframeBlob validates the CRC32 and magic, then splits out the header,
// payload, optional mask, optional no-data bytes, and optional trailing
// palette blob.
func unframeBlob(buf []byte, wantOdd bool) (h blobHeader, payload, mask, nodata, paletteBlob []byte, err error) {
	const op = "unframeBlob"
	h, err = parseBlobHeader(buf)
	if err != nil {
		return blobHeader{}, nil, nil, nil, nil, err
	}
	if h.odd != wantOdd {
		return blobHeader{}, nil, nil, nil, nil, errf(op, raster.KindCorruptBlob, "blob half mismatch: got odd=%v want odd=%v", h.odd, wantOdd)
	}

	gotCRC := binary.BigEndian.Uint32(buf[20:24])
	check := append([]byte(nil), buf...)
	binary.BigEndian.PutUint32(check[20:24], 0)
	wantCRC := crc32.ChecksumIEEE(check)
	if gotCRC != wantCRC {
		return blobHeader{}, nil, nil, nil, nil, errf(op, raster.KindCorruptBlob, "crc mismatch: got %08x want %08x", gotCRC, wantCRC)
	}

	off := blobHeaderSize
	want := off + int(h.payloadLen) + int(h.maskLen) + int(h.nodataLen)
	if len(buf) < want {
		return blobHeader{}, nil, nil, nil, nil, errf(op, raster.KindCorruptBlob, "blob length %d shorter than header-declared %d", len(buf), want)
	}
	payload = buf[off : off+int(h.payloadLen)]
	off += int(h.payloadLen)
	mask = buf[off : off+int(h.maskLen)]
	off += int(h.maskLen)
	nodata = buf[off : off+int(h.nodataLen)]
	off += int(h.nodataLen)
	paletteBlob = buf[off:]
	return h, payload, mask, nodata, paletteBlob, nil
}

// peekCompression reads just enough of the odd blob to learn which codec
// produced it, without validating the CRC — used by the top-level Decode
// dispatcher before it knows which codec's Decode to call.
func peekCompression(odd []byte) (Compression, error) {
	const op = "peekCompression"
	if len(odd) < blobHeaderSize {
		return 0, errf(op, raster.KindCorruptBlob, "odd blob too short: %d bytes", len(odd))
	}
	if odd[0] != magicOdd[0] || odd[1] != magicOdd[1] {
		return 0, errf(op, raster.KindCorruptBlob, "bad magic on odd blob")
	}
	return Compression(odd[3]), nil
}
