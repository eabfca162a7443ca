package codec

import (
	"github.com/rasterlite/rl2go/internal/raster"
)

// TIFF-style LZW, MSB-first bit packing with deferred code-width increment
// (the width grows right after the code that fills the current width is
// emitted, not before). This differs from Go's stdlib compress/lzw, which
// implements the GIF/PDF variant — ported and extended from the teacher's
// decode-only internal/cog/lzw.go (same table/clear/EOI conventions),
// adding the encoder the teacher never needed (it only ever reads
// GeoTIFFs, never writes LZW).
const (
	lzwMaxWidth  = 12
	lzwClearCode = 256
	lzwEOICode   = 257
	lzwFirstCode = 258
)

type lzwBitWriter struct {
	buf     []byte
	bitPos  int
}

func (w *lzwBitWriter) writeBits(v, n int) {
	for i := n - 1; i >= 0; i-- {
		bit := byte((v >> uint(i)) & 1)
		byteIdx := w.bitPos / 8
		for byteIdx >= len(w.buf) {
			w.buf = append(w.buf, 0)
		}
		if bit != 0 {
			w.buf[byteIdx] |= 1 << uint(7-w.bitPos%8)
		}
		w.bitPos++
	}
}

func lzwEncode(data []byte) []byte {
	w := &lzwBitWriter{}
	// dict maps a (prefixCode, suffixByte) pair to its assigned code,
	// mirroring the decoder's table-by-index structure but keyed for
	// forward lookup during encode.
	dict := make(map[[2]int]int)
	nextCode := lzwFirstCode
	codeWidth := 9

	w.writeBits(lzwClearCode, codeWidth)
	if len(data) == 0 {
		w.writeBits(lzwEOICode, codeWidth)
		return w.buf
	}

	prefix := int(data[0])
	for _, b := range data[1:] {
		key := [2]int{prefix, int(b)}
		if code, ok := dict[key]; ok {
			prefix = code
			continue
		}
		w.writeBits(prefix, codeWidth)
		if nextCode < 4096 {
			dict[key] = nextCode
			nextCode++
			if nextCode >= (1<<uint(codeWidth)) && codeWidth < lzwMaxWidth {
				codeWidth++
			}
		}
		prefix = int(b)
	}
	w.writeBits(prefix, codeWidth)
	if nextCode+1 >= (1<<uint(codeWidth)) && codeWidth < lzwMaxWidth {
		codeWidth++
	}
	w.writeBits(lzwEOICode, codeWidth)
	return w.buf
}

type lzwBitReader struct {
	src    []byte
	bitPos int
}

func (r *lzwBitReader) readBits(n int) (int, bool) {
	result := 0
	for i := 0; i < n; i++ {
		bytePos := r.bitPos / 8
		if bytePos >= len(r.src) {
			return 0, false
		}
		bitOff := 7 - r.bitPos%8
		bit := (int(r.src[bytePos]) >> uint(bitOff)) & 1
		result = (result << 1) | bit
		r.bitPos++
	}
	return result, true
}

type lzwTableEntry struct {
	prefix int
	suffix byte
	length int
}

func lzwDecode(data []byte) ([]byte, error) {
	const op = "lzwDecode"
	if len(data) == 0 {
		return nil, nil
	}
	r := &lzwBitReader{src: data}

	table := make([]lzwTableEntry, 4097)
	for i := 0; i < 256; i++ {
		table[i] = lzwTableEntry{prefix: -1, suffix: byte(i), length: 1}
	}
	nextCode := lzwFirstCode
	codeWidth := 9

	var output []byte
	buf := make([]byte, 0, 4096)

	getString := func(code int) []byte {
		e := &table[code]
		buf = buf[:e.length]
		idx := e.length - 1
		for code >= 0 {
			ent := &table[code]
			buf[idx] = ent.suffix
			idx--
			code = ent.prefix
		}
		return buf
	}

	code, ok := r.readBits(codeWidth)
	if !ok {
		return nil, errf(op, raster.KindCorruptBlob, "lzw stream truncated before clear code")
	}
	if code != lzwClearCode {
		return nil, errf(op, raster.KindCorruptBlob, "lzw stream does not start with a clear code")
	}

	prevCode := -1
	for {
		code, ok := r.readBits(codeWidth)
		if !ok {
			return output, nil
		}
		if code == lzwEOICode {
			return output, nil
		}
		if code == lzwClearCode {
			nextCode = lzwFirstCode
			codeWidth = 9
			prevCode = -1
			continue
		}

		if prevCode == -1 {
			if code >= 256 {
				return nil, errf(op, raster.KindCorruptBlob, "lzw: first code after clear is not a literal")
			}
			output = append(output, byte(code))
			prevCode = code
			continue
		}

		var outStr []byte
		if code < nextCode {
			outStr = getString(code)
			output = append(output, outStr...)
			if nextCode < 4097 {
				table[nextCode] = lzwTableEntry{prefix: prevCode, suffix: outStr[0], length: table[prevCode].length + 1}
				nextCode++
			}
		} else if code == nextCode {
			prevStr := getString(prevCode)
			first := prevStr[0]
			output = append(output, prevStr...)
			output = append(output, first)
			if nextCode < 4097 {
				table[nextCode] = lzwTableEntry{prefix: prevCode, suffix: first, length: table[prevCode].length + 1}
				nextCode++
			}
		} else {
			return nil, errf(op, raster.KindCorruptBlob, "lzw: invalid code %d", code)
		}

		if nextCode+1 >= (1<<uint(codeWidth)) && codeWidth < lzwMaxWidth {
			codeWidth++
		}
		prevCode = code
	}
}

// lzwCodec stores the whole tile (no odd/even split — spec table lists
// LZW as "odd only") as a single TIFF-style LZW-compressed raw-sample
// stream, in the same raw-byte layout as the planar family's per-sample
// wire encoding.
type lzwCodec struct{}

func (lzwCodec) Supports(sample raster.SampleKind, kind raster.PixelKind, bands int) bool {
	return !sample.IsFloat()
}

func (lzwCodec) Encode(tile *raster.Tile, quality int, littleEndian bool) (odd, even []byte, err error) {
	bands := tile.Bands
	bps := tile.Sample.BytesPerSample()
	w, h := tile.Width, tile.Height

	raw := make([]byte, w*h*bands*bps)
	px, perr := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
	if perr != nil {
		return nil, nil, perr
	}
	var mask []byte
	if tile.Mask != nil {
		mask = make([]byte, w*h)
	}
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			if err := tile.GetPixel(row, col, &px); err != nil {
				return nil, nil, err
			}
			off := (row*w + col) * bands * bps
			for b := 0; b < bands; b++ {
				writeWireSample(raw[off+b*bps:off+(b+1)*bps], px.RawSample(b), bps, littleEndian)
			}
			if mask != nil && px.IsOpaque() {
				mask[row*w+col] = 1
			}
		}
	}

	var nodataBytes []byte
	if tile.NoData != nil {
		nodataBytes = make([]byte, bands*bps)
		for b := 0; b < bands; b++ {
			writeWireSample(nodataBytes[b*bps:(b+1)*bps], tile.NoData.RawSample(b), bps, littleEndian)
		}
	}
	var paletteBlob []byte
	if tile.Kind == raster.Palette {
		paletteBlob = tile.Palette.Serialize()
	}

	compressed := lzwEncode(raw)
	hdr := blobHeader{
		odd: true, littleEndian: littleEndian, compression: LZW,
		sample: tile.Sample, kind: tile.Kind, bands: bands,
		width: w, height: h,
		hasMask: tile.Mask != nil, hasNoData: tile.NoData != nil, hasPalette: tile.Kind == raster.Palette,
	}
	return frameBlob(hdr, compressed, mask, nodataBytes, paletteBlob), nil, nil
}

func (lzwCodec) Decode(odd, even []byte, scale int, pal *raster.Palette) (*raster.Tile, error) {
	const op = "lzwCodec.Decode"
	if scale != 1 {
		return nil, errf(op, raster.KindScaleUnavailable, "LZW codec only supports scale 1, got %d", scale)
	}
	hdr, payload, mask, nodataBytes, paletteBlob, err := unframeBlob(odd, true)
	if err != nil {
		return nil, err
	}
	if hdr.compression != LZW {
		return nil, errf(op, raster.KindCorruptBlob, "blob compression %s is not LZW", hdr.compression)
	}
	resolvedPal, err := resolvePalette(hdr, paletteBlob, pal)
	if err != nil {
		return nil, err
	}
	nd, err := decodeNoData(hdr, nodataBytes)
	if err != nil {
		return nil, err
	}

	raw, err := lzwDecode(payload)
	if err != nil {
		return nil, err
	}

	bands := hdr.bands
	bps := hdr.sample.BytesPerSample()
	w, h := hdr.width, hdr.height
	buf := make([]byte, w*h*bands*bps)
	if len(raw) != len(buf) {
		return nil, errf(op, raster.KindCorruptBlob, "lzw payload decoded to %d bytes, want %d", len(raw), len(buf))
	}
	for i := 0; i < w*h*bands; i++ {
		v := readWireSample(raw[i*bps:(i+1)*bps], bps, hdr.littleEndian)
		writeWireSample(buf[i*bps:(i+1)*bps], v, bps, true)
	}

	var fullMask []byte
	if hdr.hasMask {
		fullMask = mask
	}
	return raster.NewTile(w, h, hdr.sample, hdr.kind, bands, buf, resolvedPal, fullMask, nd, nil)
}
