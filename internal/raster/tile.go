package raster

import "encoding/binary"

// Tile is an in-memory rectangular array of pixels: the unit of storage and
// transport for the whole engine. Buffers are tightly packed, row-major,
// band-interleaved-by-pixel; sub-byte samples (Bit1/2/4) are stored one
// sample per byte in memory and are only bit-packed on the wire (spec §3).
// Wider samples (Int16/UInt16/Int32/UInt32/Float32/Float64) occupy their
// native byte width in memory, in a fixed little-endian layout — "host
// native" in the design notes means "independent of the wire byte order
// selected at encode time", not a literal CPU-endianness dependency, since
// Go offers no portable way to observe true host order without unsafe.
type Tile struct {
	Width, Height int
	Sample        SampleKind
	Kind          PixelKind
	Bands         int
	Buf           []byte // len == Width*Height*Bands*Sample.BytesPerSample()
	Palette       *Palette
	Mask          []byte // optional, len == Width*Height, 0/1 per pixel
	NoData        *Pixel
	Geo           *GeoRef
}

// NewTile validates all construction invariants atomically; on any failure
// it returns a nil Tile and an error, never a partially-built tile.
func NewTile(width, height int, sample SampleKind, kind PixelKind, bands int, buf []byte, pal *Palette, mask []byte, nodata *Pixel, geo *GeoRef) (*Tile, error) {
	const op = "NewTile"
	if width <= 0 || height <= 0 {
		return nil, errf(op, KindInvalidArgument, "dimensions must be positive, got %dx%d", width, height)
	}
	if !sample.valid() {
		return nil, errf(op, KindInvalidArgument, "invalid sample kind %d", sample)
	}
	if !legalCombination(sample, kind, bands) {
		return nil, errf(op, KindInvalidArgument, "illegal combination: sample=%s kind=%s bands=%d", sample, kind, bands)
	}

	bps := sample.BytesPerSample()
	wantLen := width * height * bands * bps
	if len(buf) != wantLen {
		return nil, errf(op, KindInvalidArgument, "buffer length %d, want %d (%dx%dx%d @ %d bytes/sample)", len(buf), wantLen, width, height, bands, bps)
	}

	if kind == Palette {
		if pal == nil {
			return nil, errf(op, KindPaletteRequired, "palette-kind tile requires a palette")
		}
	} else if pal != nil {
		return nil, errf(op, KindInvalidArgument, "palette supplied for non-Palette pixel kind %s", kind)
	}

	if mask != nil {
		if kind == Monochrome || kind == Palette {
			return nil, errf(op, KindInvalidArgument, "transparency mask not allowed for pixel kind %s", kind)
		}
		if sample.IsSubByte() {
			return nil, errf(op, KindInvalidArgument, "transparency mask not allowed for sub-byte sample kind %s", sample)
		}
		if len(mask) != width*height {
			return nil, errf(op, KindInvalidArgument, "mask length %d, want %d", len(mask), width*height)
		}
		for _, b := range mask {
			if b != 0 && b != 1 {
				return nil, errf(op, KindInvalidArgument, "mask byte %d is not 0 or 1", b)
			}
		}
	}

	if nodata != nil {
		if nodata.Sample != sample || nodata.Kind != kind || nodata.Bands != bands {
			return nil, errf(op, KindMismatch, "no-data pixel (%s,%s,%d) does not match tile (%s,%s,%d)", nodata.Sample, nodata.Kind, nodata.Bands, sample, kind, bands)
		}
	}

	t := &Tile{
		Width: width, Height: height,
		Sample: sample, Kind: kind, Bands: bands,
		Buf: buf, Mask: mask, NoData: nodata, Geo: geo,
	}

	// Sub-byte / palette-index bounds check (spec §3 tile invariants).
	if sample.IsSubByte() {
		maxV := sample.MaxValue()
		for _, v := range buf {
			if uint64(v) > maxV {
				return nil, errf(op, KindValueOutOfRange, "sample value %d exceeds max %d for %s", v, maxV, sample)
			}
		}
	}
	if kind == Palette {
		n := uint64(pal.Len())
		count := width * height * bands
		for i := 0; i < count; i++ {
			v := uint64(buf[i])
			if v >= n {
				return nil, errf(op, KindValueOutOfRange, "palette index %d >= palette size %d", v, n)
			}
		}
	}

	if pal != nil {
		t.Palette = pal.Clone()
	}
	return t, nil
}

// sampleByteOffset returns the byte offset of the (row,col,band) sample.
func (t *Tile) sampleByteOffset(row, col, band int) int {
	bps := t.Sample.BytesPerSample()
	return ((row*t.Width+col)*t.Bands + band) * bps
}

func (t *Tile) checkRowCol(op string, row, col int) error {
	if row < 0 || row >= t.Height || col < 0 || col >= t.Width {
		return errf(op, KindInvalidArgument, "(row=%d,col=%d) out of range for %dx%d tile", row, col, t.Width, t.Height)
	}
	return nil
}

// readRaw reads the raw bit pattern for one sample at the given byte offset.
func (t *Tile) readRaw(off int) uint64 {
	switch t.Sample.BytesPerSample() {
	case 1:
		return uint64(t.Buf[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(t.Buf[off : off+2]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(t.Buf[off : off+4]))
	case 8:
		return binary.LittleEndian.Uint64(t.Buf[off : off+8])
	default:
		panic("raster: unreachable sample width")
	}
}

func (t *Tile) writeRaw(off int, v uint64) {
	switch t.Sample.BytesPerSample() {
	case 1:
		t.Buf[off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(t.Buf[off:off+2], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(t.Buf[off:off+4], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(t.Buf[off:off+8], v)
	default:
		panic("raster: unreachable sample width")
	}
}

// GetPixel reads the pixel at (row, col) into out, which must already match
// the tile's sample/pixel/band signature.
func (t *Tile) GetPixel(row, col int, out *Pixel) error {
	const op = "GetPixel"
	if err := t.checkRowCol(op, row, col); err != nil {
		return err
	}
	if out.Sample != t.Sample || out.Kind != t.Kind || out.Bands != t.Bands {
		return errf(op, KindMismatch, "output pixel (%s,%s,%d) does not match tile (%s,%s,%d)", out.Sample, out.Kind, out.Bands, t.Sample, t.Kind, t.Bands)
	}
	for b := 0; b < t.Bands; b++ {
		out.setRawSample(b, t.readRaw(t.sampleByteOffset(row, col, b)))
	}
	if t.Mask != nil && t.Mask[row*t.Width+col] == 0 {
		out.SetTransparent()
	} else {
		out.SetOpaque()
	}
	return nil
}

// SetPixel writes in's sample values into the pixel at (row, col). For
// Palette tiles, the stored index is validated against the palette size.
func (t *Tile) SetPixel(row, col int, in Pixel) error {
	const op = "SetPixel"
	if err := t.checkRowCol(op, row, col); err != nil {
		return err
	}
	if in.Sample != t.Sample || in.Kind != t.Kind || in.Bands != t.Bands {
		return errf(op, KindMismatch, "input pixel (%s,%s,%d) does not match tile (%s,%s,%d)", in.Sample, in.Kind, in.Bands, t.Sample, t.Kind, t.Bands)
	}
	for b := 0; b < t.Bands; b++ {
		v := in.rawSample(b)
		if t.Sample.IsSubByte() && v > t.Sample.MaxValue() {
			return errf(op, KindValueOutOfRange, "sample %d exceeds max %d", v, t.Sample.MaxValue())
		}
		if t.Kind == Palette && v >= uint64(t.Palette.Len()) {
			return errf(op, KindValueOutOfRange, "palette index %d >= palette size %d", v, t.Palette.Len())
		}
		t.writeRaw(t.sampleByteOffset(row, col, b), v)
	}
	if t.Mask != nil {
		if in.IsTransparent() {
			t.Mask[row*t.Width+col] = 0
		} else {
			t.Mask[row*t.Width+col] = 1
		}
	}
	return nil
}
