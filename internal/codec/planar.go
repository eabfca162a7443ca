package codec

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"

	"github.com/rasterlite/rl2go/internal/raster"
	"github.com/ulikunitz/xz/lzma"
)

// planarCodec implements the None/Deflate/LZMA family: a single pixel-plane
// partition (spec §9 "progressive codec family") shared across all three,
// with compression applied as a post-step over the planar bytes. Grounded
// on internal/tile/downsample.go's box-filter averaging, generalized from
// RGBA-only to the full sample-kind matrix, and on the teacher's
// internal/encode dispatch-by-format shape.
type planarCodec struct {
	compression Compression
}

func (planarCodec) Supports(sample raster.SampleKind, kind raster.PixelKind, bands int) bool {
	return true
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func writeWireSample(dst []byte, v uint64, bps int, little bool) {
	switch bps {
	case 1:
		dst[0] = byte(v)
	case 2:
		if little {
			binary.LittleEndian.PutUint16(dst, uint16(v))
		} else {
			binary.BigEndian.PutUint16(dst, uint16(v))
		}
	case 4:
		if little {
			binary.LittleEndian.PutUint32(dst, uint32(v))
		} else {
			binary.BigEndian.PutUint32(dst, uint32(v))
		}
	case 8:
		if little {
			binary.LittleEndian.PutUint64(dst, v)
		} else {
			binary.BigEndian.PutUint64(dst, v)
		}
	}
}

func readWireSample(src []byte, bps int, little bool) uint64 {
	switch bps {
	case 1:
		return uint64(src[0])
	case 2:
		if little {
			return uint64(binary.LittleEndian.Uint16(src))
		}
		return uint64(binary.BigEndian.Uint16(src))
	case 4:
		if little {
			return uint64(binary.LittleEndian.Uint32(src))
		}
		return uint64(binary.BigEndian.Uint32(src))
	case 8:
		if little {
			return binary.LittleEndian.Uint64(src)
		}
		return binary.BigEndian.Uint64(src)
	}
	return 0
}

func compressBytes(data []byte, comp Compression) ([]byte, error) {
	const op = "compressBytes"
	switch comp {
	case None:
		return data, nil
	case Deflate:
		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, errf(op, raster.KindEncoderFailure, "flate writer: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, errf(op, raster.KindEncoderFailure, "flate write: %v", err)
		}
		if err := w.Close(); err != nil {
			return nil, errf(op, raster.KindEncoderFailure, "flate close: %v", err)
		}
		return buf.Bytes(), nil
	case LZMA:
		var buf bytes.Buffer
		w, err := lzma.NewWriter(&buf)
		if err != nil {
			return nil, errf(op, raster.KindEncoderFailure, "lzma writer: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, errf(op, raster.KindEncoderFailure, "lzma write: %v", err)
		}
		if err := w.Close(); err != nil {
			return nil, errf(op, raster.KindEncoderFailure, "lzma close: %v", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, errf(op, raster.KindUnsupportedCompression, "not a planar-family compression: %s", comp)
	}
}

func decompressBytes(data []byte, comp Compression) ([]byte, error) {
	const op = "decompressBytes"
	switch comp {
	case None:
		return data, nil
	case Deflate:
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, errf(op, raster.KindDecoderFailure, "flate read: %v", err)
		}
		return out, nil
	case LZMA:
		r, err := lzma.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errf(op, raster.KindDecoderFailure, "lzma reader: %v", err)
		}
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, errf(op, raster.KindDecoderFailure, "lzma read: %v", err)
		}
		return out, nil
	default:
		return nil, errf(op, raster.KindUnsupportedCompression, "not a planar-family compression: %s", comp)
	}
}

// isOddPosition reports whether (row, col) belongs to the 1:2 downscaled
// grid (spec §4.D): every even row and even column.
func isOddPosition(row, col int) bool { return row%2 == 0 && col%2 == 0 }

func (c planarCodec) Encode(tile *raster.Tile, quality int, littleEndian bool) (odd, even []byte, err error) {
	const op = "planarCodec.Encode"
	bands := tile.Bands
	bps := tile.Sample.BytesPerSample()
	W, H := tile.Width, tile.Height
	oddW, oddH := ceilDiv(W, 2), ceilDiv(H, 2)
	oddCount := oddW * oddH
	evenCount := W*H - oddCount

	oddBuf := make([]byte, oddCount*bands*bps)
	evenBuf := make([]byte, evenCount*bands*bps)
	var oddMask, evenMask []byte
	if tile.Mask != nil {
		oddMask = make([]byte, oddCount)
		evenMask = make([]byte, evenCount)
	}

	px, perr := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
	if perr != nil {
		return nil, nil, perr
	}

	oi, ei := 0, 0
	for row := 0; row < H; row++ {
		for col := 0; col < W; col++ {
			if err := tile.GetPixel(row, col, &px); err != nil {
				return nil, nil, err
			}
			var dstBuf []byte
			var dstOff, maskIdx int
			if isOddPosition(row, col) {
				dstOff = oi * bands * bps
				maskIdx = oi
				dstBuf = oddBuf
				oi++
			} else {
				dstOff = ei * bands * bps
				maskIdx = ei
				dstBuf = evenBuf
				ei++
			}
			for b := 0; b < bands; b++ {
				writeWireSample(dstBuf[dstOff+b*bps:dstOff+(b+1)*bps], px.RawSample(b), bps, littleEndian)
			}
			if tile.Mask != nil {
				v := byte(0)
				if px.IsOpaque() {
					v = 1
				}
				if isOddPosition(row, col) {
					oddMask[maskIdx] = v
				} else {
					evenMask[maskIdx] = v
				}
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

	compressedOdd, err := compressBytes(oddBuf, c.compression)
	if err != nil {
		return nil, nil, err
	}

	oddHdr := blobHeader{
		odd: true, littleEndian: littleEndian, compression: c.compression,
		sample: tile.Sample, kind: tile.Kind, bands: bands,
		width: W, height: H,
		hasMask: tile.Mask != nil, hasNoData: tile.NoData != nil, hasPalette: tile.Kind == raster.Palette,
	}
	odd = frameBlob(oddHdr, compressedOdd, oddMask, nodataBytes, paletteBlob)

	if evenCount == 0 {
		return odd, nil, nil
	}

	compressedEven, err := compressBytes(evenBuf, c.compression)
	if err != nil {
		return nil, nil, errf(op, raster.KindEncoderFailure, "compress even plane: %v", err)
	}
	evenHdr := blobHeader{
		odd: false, littleEndian: littleEndian, compression: c.compression,
		sample: tile.Sample, kind: tile.Kind, bands: bands,
		width: W, height: H,
		hasMask: tile.Mask != nil,
	}
	even = frameBlob(evenHdr, compressedEven, evenMask, nil, nil)
	return odd, even, nil
}

func resolvePalette(hdr blobHeader, paletteBlob []byte, supplied *raster.Palette) (*raster.Palette, error) {
	const op = "resolvePalette"
	if hdr.kind != raster.Palette {
		return nil, nil
	}
	var embedded *raster.Palette
	if hdr.hasPalette {
		p, err := raster.DeserializePalette(paletteBlob)
		if err != nil {
			return nil, err
		}
		embedded = p
	}
	switch {
	case embedded != nil && supplied != nil:
		if !palettesEqual(embedded, supplied) {
			return nil, errf(op, raster.KindPaletteMismatch, "supplied palette does not match blob-embedded palette")
		}
		return embedded, nil
	case embedded != nil:
		return embedded, nil
	case supplied != nil:
		return supplied, nil
	default:
		return nil, errf(op, raster.KindPaletteRequired, "palette-kind tile requires an embedded or supplied palette")
	}
}

func palettesEqual(a, b *raster.Palette) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		ea, _ := a.Entry(i)
		eb, _ := b.Entry(i)
		if ea != eb {
			return false
		}
	}
	return true
}

func decodeNoData(hdr blobHeader, nodata []byte) (*raster.Pixel, error) {
	if !hdr.hasNoData {
		return nil, nil
	}
	px, err := raster.NewPixel(hdr.sample, hdr.kind, hdr.bands)
	if err != nil {
		return nil, err
	}
	bps := hdr.sample.BytesPerSample()
	for b := 0; b < hdr.bands; b++ {
		px.SetRawSample(b, readWireSample(nodata[b*bps:(b+1)*bps], bps, hdr.littleEndian))
	}
	return &px, nil
}

func (c planarCodec) Decode(odd, even []byte, scale int, pal *raster.Palette) (*raster.Tile, error) {
	const op = "planarCodec.Decode"
	hdr, payload, mask, nodataBytes, paletteBlob, err := unframeBlob(odd, true)
	if err != nil {
		return nil, err
	}
	if hdr.compression != c.compression {
		return nil, errf(op, raster.KindCorruptBlob, "blob compression %s does not match codec %s", hdr.compression, c.compression)
	}

	resolvedPal, err := resolvePalette(hdr, paletteBlob, pal)
	if err != nil {
		return nil, err
	}
	nd, err := decodeNoData(hdr, nodataBytes)
	if err != nil {
		return nil, err
	}

	raw, err := decompressBytes(payload, c.compression)
	if err != nil {
		return nil, err
	}

	bands := hdr.bands
	bps := hdr.sample.BytesPerSample()
	W, H := hdr.width, hdr.height
	oddW, oddH := ceilDiv(W, 2), ceilDiv(H, 2)
	oddCount := oddW * oddH

	oddTileBuf := make([]byte, oddCount*bands*bps)
	for i := 0; i < oddCount*bands; i++ {
		v := readWireSample(raw[i*bps:(i+1)*bps], bps, hdr.littleEndian)
		writeWireSample(oddTileBuf[i*bps:(i+1)*bps], v, bps, true) // host-native is always little-endian in memory
	}
	var oddMask []byte
	if hdr.hasMask {
		oddMask = mask
	}

	oddTile, err := raster.NewTile(oddW, oddH, hdr.sample, hdr.kind, bands, oddTileBuf, resolvedPal, oddMask, nd, nil)
	if err != nil {
		return nil, err
	}

	switch scale {
	case 2:
		return oddTile, nil
	case 4:
		return downscaleTile(oddTile, 2)
	case 8:
		return downscaleTile(oddTile, 4)
	case 1:
		evenCount := W*H - oddCount
		if evenCount == 0 {
			return oddTile, nil
		}
		if len(even) == 0 {
			return nil, errf(op, raster.KindCorruptBlob, "scale 1 requested but even blob is empty for a %dx%d tile", W, H)
		}
		evenHdr, evenPayload, evenMaskBytes, _, _, err := unframeBlob(even, false)
		if err != nil {
			return nil, err
		}
		if evenHdr.compression != c.compression {
			return nil, errf(op, raster.KindCorruptBlob, "even blob compression %s does not match codec %s", evenHdr.compression, c.compression)
		}
		evenRaw, err := decompressBytes(evenPayload, c.compression)
		if err != nil {
			return nil, err
		}

		fullBuf := make([]byte, W*H*bands*bps)
		var fullMask []byte
		if hdr.hasMask {
			fullMask = make([]byte, W*H)
		}

		ei := 0
		oddPx, _ := raster.NewPixel(hdr.sample, hdr.kind, bands)
		for row := 0; row < H; row++ {
			for col := 0; col < W; col++ {
				dstOff := (row*W + col) * bands * bps
				if isOddPosition(row, col) {
					_ = oddTile.GetPixel(row/2, col/2, &oddPx)
					for b := 0; b < bands; b++ {
						writeWireSample(fullBuf[dstOff+b*bps:dstOff+(b+1)*bps], oddPx.RawSample(b), bps, true)
					}
					if fullMask != nil {
						if oddPx.IsOpaque() {
							fullMask[row*W+col] = 1
						}
					}
				} else {
					srcOff := ei * bands * bps
					for b := 0; b < bands; b++ {
						v := readWireSample(evenRaw[srcOff+b*bps:srcOff+(b+1)*bps], bps, evenHdr.littleEndian)
						writeWireSample(fullBuf[dstOff+b*bps:dstOff+(b+1)*bps], v, bps, true)
					}
					if fullMask != nil && evenMaskBytes != nil {
						fullMask[row*W+col] = evenMaskBytes[ei]
					}
					ei++
				}
			}
		}
		return raster.NewTile(W, H, hdr.sample, hdr.kind, bands, fullBuf, resolvedPal, fullMask, nd, nil)
	default:
		return nil, errf(op, raster.KindInvalidArgument, "unsupported scale %d", scale)
	}
}

func isNoData(nd *raster.Pixel, px *raster.Pixel) bool {
	if nd == nil {
		return false
	}
	for b := 0; b < nd.Bands; b++ {
		if nd.RawSample(b) != px.RawSample(b) {
			return false
		}
	}
	return true
}

// sampleAsFloat/setSampleFromFloat delegate to raster.Pixel's shared
// numeric view (also used by internal/stats' moment accumulator) so the
// per-sample-kind switch lives in one place. Truncation toward zero on
// the way back matches spec §4.D's box-filter rounding rule (Go's
// float-to-int conversion already truncates toward zero).
func sampleAsFloat(px *raster.Pixel, b int) float64    { return px.AsFloat(b) }
func setSampleFromFloat(px *raster.Pixel, b int, v float64) { px.SetFromFloat(b, v) }

// downscaleTile applies the spec §4.D box filter: an unweighted mean
// (Palette/Monochrome fall back to majority vote, since indexes cannot be
// averaged) over factor x factor source blocks, excluding no-data
// contributors and preserving coverage (a destination cell is opaque iff
// any contributor is opaque).
func downscaleTile(src *raster.Tile, factor int) (*raster.Tile, error) {
	bands := src.Bands
	bps := src.Sample.BytesPerSample()
	newW := ceilDiv(src.Width, factor)
	newH := ceilDiv(src.Height, factor)

	buf := make([]byte, newW*newH*bands*bps)
	var mask []byte
	if src.Mask != nil {
		mask = make([]byte, newW*newH)
	}
	dst, err := raster.NewTile(newW, newH, src.Sample, src.Kind, bands, buf, src.Palette, mask, src.NoData, nil)
	if err != nil {
		return nil, err
	}

	srcPx, err := raster.NewPixel(src.Sample, src.Kind, bands)
	if err != nil {
		return nil, err
	}
	dstPx, err := raster.NewPixel(src.Sample, src.Kind, bands)
	if err != nil {
		return nil, err
	}

	votingKind := src.Kind == raster.Palette || src.Kind == raster.Monochrome

	for dr := 0; dr < newH; dr++ {
		for dc := 0; dc < newW; dc++ {
			r0, c0 := dr*factor, dc*factor
			r1 := r0 + factor
			if r1 > src.Height {
				r1 = src.Height
			}
			c1 := c0 + factor
			if c1 > src.Width {
				c1 = src.Width
			}

			anyOpaque := false
			count := 0

			if votingKind {
				counts := make(map[uint64]int)
				for r := r0; r < r1; r++ {
					for c := c0; c < c1; c++ {
						_ = src.GetPixel(r, c, &srcPx)
						if isNoData(src.NoData, &srcPx) {
							continue
						}
						counts[srcPx.RawSample(0)]++
						count++
						if srcPx.IsOpaque() {
							anyOpaque = true
						}
					}
				}
				if count == 0 {
					if src.NoData != nil {
						dstPx = *src.NoData
					} else {
						dstPx.SetRawSample(0, 0)
						dstPx.SetOpaque()
					}
				} else {
					best, bestCount := uint64(0), -1
					for k, v := range counts {
						if v > bestCount {
							best, bestCount = k, v
						}
					}
					dstPx.SetRawSample(0, best)
					dstPx.SetOpaque()
				}
			} else {
				sums := make([]float64, bands)
				for r := r0; r < r1; r++ {
					for c := c0; c < c1; c++ {
						_ = src.GetPixel(r, c, &srcPx)
						if isNoData(src.NoData, &srcPx) {
							continue
						}
						for b := 0; b < bands; b++ {
							sums[b] += sampleAsFloat(&srcPx, b)
						}
						count++
						if srcPx.IsOpaque() {
							anyOpaque = true
						}
					}
				}
				if count == 0 {
					if src.NoData != nil {
						dstPx = *src.NoData
					} else {
						for b := 0; b < bands; b++ {
							setSampleFromFloat(&dstPx, b, 0)
						}
						dstPx.SetOpaque()
					}
				} else {
					for b := 0; b < bands; b++ {
						setSampleFromFloat(&dstPx, b, sums[b]/float64(count))
					}
					dstPx.SetOpaque()
				}
			}

			if src.Mask != nil {
				if anyOpaque {
					dstPx.SetOpaque()
				} else {
					dstPx.SetTransparent()
				}
			}
			if err := dst.SetPixel(dr, dc, dstPx); err != nil {
				return nil, err
			}
		}
	}
	return dst, nil
}
