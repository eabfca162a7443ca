package codec

import (
	"github.com/rasterlite/rl2go/internal/raster"
)

// ccittCodec is the run-length codec registered under the CCITT Fax4
// compression code for Monochrome/Bit1 tiles — one-half, odd-only per spec §4.D's
// compression applicability table. No ecosystem package in the retrieved
// pack implements CCITT Fax, so this is hand-written; the MSB-first
// bitstream reader/writer shape is mirrored from the teacher's
// internal/cog/lzw.go readBits convention.
//
// Each scanline is coded on its own: a 16-bit count of runs, then the
// runs, alternating white and black starting with white, each written as
// a unary code (run one-bits followed by a zero bit). No reference line
// is used, and none of the T.6 coding modes or Huffman run tables are
// implemented, so the payload is not a standard Group 4 stream and only
// this codec's own decoder reads it.
type ccittCodec struct{}

func (ccittCodec) Supports(sample raster.SampleKind, kind raster.PixelKind, bands int) bool {
	return kind == raster.Monochrome && sample == raster.SampleBit1 && bands == 1
}

const (
	ccittEscape = 0 // not referenced by the encoder or decoder; rows have no escape form
)

type ccittBitWriter struct {
	buf    []byte
	bitPos int
}

func (w *ccittBitWriter) writeBit(b byte) {
	byteIdx := w.bitPos / 8
	for byteIdx >= len(w.buf) {
		w.buf = append(w.buf, 0)
	}
	if b != 0 {
		w.buf[byteIdx] |= 1 << uint(7-w.bitPos%8)
	}
	w.bitPos++
}

func (w *ccittBitWriter) writeUint(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.writeBit(byte((v >> uint(i)) & 1))
	}
}

// writeRun emits run as a unary code (run ones followed by a zero) —
// simple and unambiguous, in place of the real Group 4 Huffman run tables.
func (w *ccittBitWriter) writeRun(run int) {
	for i := 0; i < run; i++ {
		w.writeBit(1)
	}
	w.writeBit(0)
}

type ccittBitReader struct {
	src    []byte
	bitPos int
}

func (r *ccittBitReader) readBit() (byte, bool) {
	byteIdx := r.bitPos / 8
	if byteIdx >= len(r.src) {
		return 0, false
	}
	bit := (r.src[byteIdx] >> uint(7-r.bitPos%8)) & 1
	r.bitPos++
	return bit, true
}

func (r *ccittBitReader) readUint(n int) (uint32, bool) {
	var v uint32
	for i := 0; i < n; i++ {
		b, ok := r.readBit()
		if !ok {
			return 0, false
		}
		v = (v << 1) | uint32(b)
	}
	return v, true
}

func (r *ccittBitReader) readRun() (int, bool) {
	run := 0
	for {
		b, ok := r.readBit()
		if !ok {
			return 0, false
		}
		if b == 0 {
			return run, true
		}
		run++
	}
}

// rowToRuns converts a packed 1-bit row (MSB-first, 1 == black per the
// Monochrome convention established in raster.convert.go) into
// alternating white/black run lengths starting with white.
func rowToRuns(bits []byte, width int) []int {
	var runs []int
	cur := byte(0)
	run := 0
	for col := 0; col < width; col++ {
		byteIdx := col / 8
		bitIdx := 7 - col%8
		b := (bits[byteIdx] >> uint(bitIdx)) & 1
		if b == cur {
			run++
		} else {
			runs = append(runs, run)
			cur = b
			run = 1
		}
	}
	runs = append(runs, run)
	return runs
}

func runsToRow(runs []int, width int) []byte {
	out := make([]byte, (width+7)/8)
	col := 0
	cur := byte(0)
	for _, run := range runs {
		for i := 0; i < run && col < width; i++ {
			if cur == 1 {
				out[col/8] |= 1 << uint(7-col%8)
			}
			col++
		}
		cur ^= 1
	}
	return out
}

func ccittEncode(rows [][]byte, width int) []byte {
	w := &ccittBitWriter{}
	for _, row := range rows {
		runs := rowToRuns(row, width)
		w.writeUint(uint32(len(runs)), 16)
		for _, run := range runs {
			w.writeRun(run)
		}
	}
	return w.buf
}

func ccittDecode(data []byte, width, height int) ([][]byte, error) {
	const op = "ccittDecode"
	r := &ccittBitReader{src: data}
	rows := make([][]byte, height)
	for y := 0; y < height; y++ {
		numRuns, ok := r.readUint(16)
		if !ok {
			return nil, errf(op, raster.KindCorruptBlob, "ccitt stream truncated at row %d run count", y)
		}
		runs := make([]int, numRuns)
		for i := range runs {
			run, ok := r.readRun()
			if !ok {
				return nil, errf(op, raster.KindCorruptBlob, "ccitt stream truncated at row %d run %d", y, i)
			}
			runs[i] = run
		}
		rows[y] = runsToRow(runs, width)
	}
	return rows, nil
}

func (ccittCodec) Encode(tile *raster.Tile, quality int, littleEndian bool) (odd, even []byte, err error) {
	w, h := tile.Width, tile.Height
	rowBytes := (w + 7) / 8
	rows := make([][]byte, h)
	px, perr := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
	if perr != nil {
		return nil, nil, perr
	}
	var mask []byte
	if tile.Mask != nil {
		mask = make([]byte, w*h)
	}
	for row := 0; row < h; row++ {
		rowBuf := make([]byte, rowBytes)
		for col := 0; col < w; col++ {
			if err := tile.GetPixel(row, col, &px); err != nil {
				return nil, nil, err
			}
			v, _ := px.GetSampleUInt8(0)
			if v != 0 {
				rowBuf[col/8] |= 1 << uint(7-col%8)
			}
			if mask != nil && px.IsOpaque() {
				mask[row*w+col] = 1
			}
		}
		rows[row] = rowBuf
	}

	compressed := ccittEncode(rows, w)

	var nodataBytes []byte
	if tile.NoData != nil {
		nodataBytes = []byte{byte(tile.NoData.RawSample(0))}
	}

	hdr := blobHeader{
		odd: true, littleEndian: littleEndian, compression: CCITTFax4,
		sample: tile.Sample, kind: tile.Kind, bands: tile.Bands,
		width: w, height: h,
		hasMask: tile.Mask != nil, hasNoData: tile.NoData != nil,
	}
	return frameBlob(hdr, compressed, mask, nodataBytes, nil), nil, nil
}

func (ccittCodec) Decode(odd, even []byte, scale int, pal *raster.Palette) (*raster.Tile, error) {
	const op = "ccittCodec.Decode"
	if scale != 1 {
		return nil, errf(op, raster.KindScaleUnavailable, "CCITT codec only supports scale 1, got %d", scale)
	}
	hdr, payload, mask, nodataBytes, _, err := unframeBlob(odd, true)
	if err != nil {
		return nil, err
	}
	if hdr.compression != CCITTFax4 {
		return nil, errf(op, raster.KindCorruptBlob, "blob compression %s is not CCITT Fax4", hdr.compression)
	}
	nd, err := decodeNoData(hdr, nodataBytes)
	if err != nil {
		return nil, err
	}

	rows, err := ccittDecode(payload, hdr.width, hdr.height)
	if err != nil {
		return nil, err
	}

	w, h := hdr.width, hdr.height
	buf := make([]byte, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			byteIdx := col / 8
			bitIdx := 7 - col%8
			v := (rows[row][byteIdx] >> uint(bitIdx)) & 1
			buf[row*w+col] = v
		}
	}

	var fullMask []byte
	if hdr.hasMask {
		fullMask = mask
	}
	return raster.NewTile(w, h, hdr.sample, hdr.kind, hdr.bands, buf, nil, fullMask, nd, nil)
}
