// Package raster implements the in-memory raster object model: typed pixel
// values, indexed palettes, and rectangular tiles built from them.
package raster

import (
	"fmt"
	"math"
)

// SampleKind identifies the numeric storage type of a single pixel sample.
type SampleKind uint8

const (
	SampleBit1 SampleKind = iota
	SampleBit2
	SampleBit4
	SampleInt8
	SampleUInt8
	SampleInt16
	SampleUInt16
	SampleInt32
	SampleUInt32
	SampleFloat32
	SampleFloat64
)

func (s SampleKind) String() string {
	switch s {
	case SampleBit1:
		return "Bit1"
	case SampleBit2:
		return "Bit2"
	case SampleBit4:
		return "Bit4"
	case SampleInt8:
		return "Int8"
	case SampleUInt8:
		return "UInt8"
	case SampleInt16:
		return "Int16"
	case SampleUInt16:
		return "UInt16"
	case SampleInt32:
		return "Int32"
	case SampleUInt32:
		return "UInt32"
	case SampleFloat32:
		return "Float32"
	case SampleFloat64:
		return "Float64"
	default:
		return fmt.Sprintf("SampleKind(%d)", uint8(s))
	}
}

// sampleInfo is the per-kind dispatch table referenced throughout the
// package in place of repeated switch statements (spec design note: split
// by (sample x pixel) rather than a single fat enum of operations).
type sampleInfo struct {
	bits      int // bits per sample in memory (sub-byte kinds still occupy 1 byte in memory)
	wireBits  int // bits per sample on the wire (bit-packed for sub-byte kinds)
	maxValue  uint64
	isFloat   bool
	isSigned  bool
}

var sampleTable = [...]sampleInfo{
	SampleBit1:    {bits: 8, wireBits: 1, maxValue: 1},
	SampleBit2:    {bits: 8, wireBits: 2, maxValue: 3},
	SampleBit4:    {bits: 8, wireBits: 4, maxValue: 15},
	SampleInt8:    {bits: 8, wireBits: 8, maxValue: 0x7f, isSigned: true},
	SampleUInt8:   {bits: 8, wireBits: 8, maxValue: 0xff},
	SampleInt16:   {bits: 16, wireBits: 16, maxValue: 0x7fff, isSigned: true},
	SampleUInt16:  {bits: 16, wireBits: 16, maxValue: 0xffff},
	SampleInt32:   {bits: 32, wireBits: 32, maxValue: 0x7fffffff, isSigned: true},
	SampleUInt32:  {bits: 32, wireBits: 32, maxValue: 0xffffffff},
	SampleFloat32: {bits: 32, wireBits: 32, isFloat: true},
	SampleFloat64: {bits: 64, wireBits: 64, isFloat: true},
}

func (s SampleKind) valid() bool { return int(s) < len(sampleTable) }

// Bits returns the in-memory storage width (sub-byte kinds occupy a whole
// byte per sample in memory; bit-packing only happens on the wire).
func (s SampleKind) Bits() int { return sampleTable[s].bits }

// BytesPerSample returns the in-memory byte width (sub-byte kinds are 1).
func (s SampleKind) BytesPerSample() int { return (sampleTable[s].bits + 7) / 8 }

// WireBits returns the bit-packed wire width used by the None-family codec.
func (s SampleKind) WireBits() int { return sampleTable[s].wireBits }

// IsFloat reports whether the kind is Float32 or Float64.
func (s SampleKind) IsFloat() bool { return sampleTable[s].isFloat }

// IsSubByte reports whether the kind is Bit1, Bit2, or Bit4.
func (s SampleKind) IsSubByte() bool { return s == SampleBit1 || s == SampleBit2 || s == SampleBit4 }

// MaxValue returns the largest representable unsigned value for sub-byte
// and unsigned integer kinds (used for ValueOutOfRange checks).
func (s SampleKind) MaxValue() uint64 { return sampleTable[s].maxValue }

// PixelKind identifies the semantic interpretation of a Tile's samples.
type PixelKind uint8

const (
	Monochrome PixelKind = iota
	Palette
	Grayscale
	Rgb
	Multiband
	DataGrid
)

func (p PixelKind) String() string {
	switch p {
	case Monochrome:
		return "Monochrome"
	case Palette:
		return "Palette"
	case Grayscale:
		return "Grayscale"
	case Rgb:
		return "Rgb"
	case Multiband:
		return "Multiband"
	case DataGrid:
		return "DataGrid"
	default:
		return fmt.Sprintf("PixelKind(%d)", uint8(p))
	}
}

// Kind is the closed taxonomy of error kinds from spec §7.
type Kind uint8

const (
	KindInvalidArgument Kind = iota
	KindMismatch
	KindValueOutOfRange
	KindUnsupportedConversion
	KindUnsupportedCompression
	KindEncoderFailure
	KindDecoderFailure
	KindCorruptBlob
	KindScaleUnavailable
	KindPaletteRequired
	KindPaletteMismatch
	KindNoMatch
	KindStoreError
)

func (k Kind) String() string {
	names := [...]string{
		"InvalidArgument", "KindMismatch", "ValueOutOfRange",
		"UnsupportedConversion", "UnsupportedCompression",
		"EncoderFailure", "DecoderFailure", "CorruptBlob",
		"ScaleUnavailable", "PaletteRequired", "PaletteMismatch",
		"NoMatch", "StoreError",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Error is the module's closed error type: a taxonomy Kind, the operation
// that failed, and an optional wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func errf(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// NewError is the exported form of errf, for other packages (codec, coverage,
// pyramid, region, stats, store) that share this package's closed error
// taxonomy rather than defining their own.
func NewError(op string, kind Kind, format string, args ...any) *Error {
	return errf(op, kind, format, args...)
}

// legalCombination reports whether (sample, pixel, bands) is permitted by
// the table in spec §3.
func legalCombination(sample SampleKind, kind PixelKind, bands int) bool {
	switch kind {
	case Monochrome:
		return sample == SampleBit1 && bands == 1
	case Palette:
		return (sample == SampleBit1 || sample == SampleBit2 || sample == SampleBit4 || sample == SampleUInt8) && bands == 1
	case Grayscale:
		return (sample == SampleBit1 || sample == SampleBit2 || sample == SampleBit4 || sample == SampleUInt8) && bands == 1
	case Rgb:
		return (sample == SampleUInt8 || sample == SampleUInt16) && bands == 3
	case Multiband:
		return (sample == SampleUInt8 || sample == SampleUInt16) && bands >= 2
	case DataGrid:
		return bands == 1
	default:
		return false
	}
}

// maxPixelBands bounds the fixed-size sample array carried by a Pixel value
// (a single in-flight sample tuple). Tile buffers, by contrast, are
// slice-backed and support any band count >= 2 for Multiband.
const maxPixelBands = 4

// Pixel is a single typed cell: one sample per band, plus an opacity bit.
// Samples are stored as raw bit patterns so the same struct serves every
// sample kind without a type switch at the storage layer; typed accessors
// reinterpret the bits on the way in and out.
type Pixel struct {
	Sample  SampleKind
	Kind    PixelKind
	Bands   int
	samples [maxPixelBands]uint64
	opaque  bool
}

// NewPixel validates (sample, kind, bands) against the legal-combination
// table and returns a zero-initialized, opaque Pixel.
func NewPixel(sample SampleKind, kind PixelKind, bands int) (Pixel, error) {
	if !sample.valid() {
		return Pixel{}, errf("NewPixel", KindInvalidArgument, "invalid sample kind %d", sample)
	}
	if bands <= 0 {
		return Pixel{}, errf("NewPixel", KindInvalidArgument, "bands must be > 0, got %d", bands)
	}
	if bands > maxPixelBands {
		return Pixel{}, errf("NewPixel", KindInvalidArgument, "bands %d exceeds pixel-value limit %d", bands, maxPixelBands)
	}
	if !legalCombination(sample, kind, bands) {
		return Pixel{}, errf("NewPixel", KindInvalidArgument, "illegal combination: sample=%s kind=%s bands=%d", sample, kind, bands)
	}
	return Pixel{Sample: sample, Kind: kind, Bands: bands, opaque: true}, nil
}

func (p *Pixel) checkKind(op string, sample SampleKind, band int) error {
	if sample != p.Sample {
		return errf(op, KindMismatch, "sample kind %s does not match pixel's %s", sample, p.Sample)
	}
	if band < 0 || band >= p.Bands {
		return errf(op, KindMismatch, "band %d out of range [0,%d)", band, p.Bands)
	}
	return nil
}

func clampCheck(op string, sample SampleKind, v uint64) error {
	if sample.IsSubByte() && v > sample.MaxValue() {
		return errf(op, KindValueOutOfRange, "value %d exceeds max %d for %s", v, sample.MaxValue(), sample)
	}
	return nil
}

// GetSampleUInt8 returns band's raw sample reinterpreted as uint8. Valid for
// UInt8 and for the sub-byte kinds (Bit1/Bit2/Bit4), which are also stored
// one sample per byte in memory.
func (p *Pixel) GetSampleUInt8(band int) (uint8, error) {
	switch p.Sample {
	case SampleUInt8, SampleBit1, SampleBit2, SampleBit4:
	default:
		return 0, errf("GetSampleUInt8", KindMismatch, "pixel sample kind is %s, not a uint8-compatible kind", p.Sample)
	}
	if band < 0 || band >= p.Bands {
		return 0, errf("GetSampleUInt8", KindMismatch, "band %d out of range [0,%d)", band, p.Bands)
	}
	return uint8(p.samples[band]), nil
}

// SetSampleUInt8 sets band's sample from a uint8, enforcing sub-byte range.
func (p *Pixel) SetSampleUInt8(band int, v uint8) error {
	if p.Sample != SampleUInt8 && p.Sample != SampleBit1 && p.Sample != SampleBit2 && p.Sample != SampleBit4 {
		return errf("SetSampleUInt8", KindMismatch, "pixel sample kind is %s, not a uint8-compatible kind", p.Sample)
	}
	if band < 0 || band >= p.Bands {
		return errf("SetSampleUInt8", KindMismatch, "band %d out of range [0,%d)", band, p.Bands)
	}
	if err := clampCheck("SetSampleUInt8", p.Sample, uint64(v)); err != nil {
		return err
	}
	p.samples[band] = uint64(v)
	return nil
}

// GetSampleInt8 returns band's sample reinterpreted as int8.
func (p *Pixel) GetSampleInt8(band int) (int8, error) {
	if err := p.checkKind("GetSampleInt8", SampleInt8, band); err != nil {
		return 0, err
	}
	return int8(int64(p.samples[band])), nil
}

// SetSampleInt8 sets band's sample from an int8.
func (p *Pixel) SetSampleInt8(band int, v int8) error {
	if err := p.checkKind("SetSampleInt8", SampleInt8, band); err != nil {
		return err
	}
	p.samples[band] = uint64(int64(v))
	return nil
}

// GetSampleUInt16 returns band's sample reinterpreted as uint16.
func (p *Pixel) GetSampleUInt16(band int) (uint16, error) {
	if err := p.checkKind("GetSampleUInt16", SampleUInt16, band); err != nil {
		return 0, err
	}
	return uint16(p.samples[band]), nil
}

// SetSampleUInt16 sets band's sample from a uint16.
func (p *Pixel) SetSampleUInt16(band int, v uint16) error {
	if err := p.checkKind("SetSampleUInt16", SampleUInt16, band); err != nil {
		return err
	}
	p.samples[band] = uint64(v)
	return nil
}

// GetSampleInt16 returns band's sample reinterpreted as int16.
func (p *Pixel) GetSampleInt16(band int) (int16, error) {
	if err := p.checkKind("GetSampleInt16", SampleInt16, band); err != nil {
		return 0, err
	}
	return int16(int64(p.samples[band])), nil
}

// SetSampleInt16 sets band's sample from an int16.
func (p *Pixel) SetSampleInt16(band int, v int16) error {
	if err := p.checkKind("SetSampleInt16", SampleInt16, band); err != nil {
		return err
	}
	p.samples[band] = uint64(int64(v))
	return nil
}

// GetSampleUInt32 returns band's sample reinterpreted as uint32.
func (p *Pixel) GetSampleUInt32(band int) (uint32, error) {
	if err := p.checkKind("GetSampleUInt32", SampleUInt32, band); err != nil {
		return 0, err
	}
	return uint32(p.samples[band]), nil
}

// SetSampleUInt32 sets band's sample from a uint32.
func (p *Pixel) SetSampleUInt32(band int, v uint32) error {
	if err := p.checkKind("SetSampleUInt32", SampleUInt32, band); err != nil {
		return err
	}
	p.samples[band] = uint64(v)
	return nil
}

// GetSampleInt32 returns band's sample reinterpreted as int32.
func (p *Pixel) GetSampleInt32(band int) (int32, error) {
	if err := p.checkKind("GetSampleInt32", SampleInt32, band); err != nil {
		return 0, err
	}
	return int32(int64(p.samples[band])), nil
}

// SetSampleInt32 sets band's sample from an int32.
func (p *Pixel) SetSampleInt32(band int, v int32) error {
	if err := p.checkKind("SetSampleInt32", SampleInt32, band); err != nil {
		return err
	}
	p.samples[band] = uint64(int64(v))
	return nil
}

// GetSampleFloat32 returns band's sample reinterpreted as float32.
func (p *Pixel) GetSampleFloat32(band int) (float32, error) {
	if err := p.checkKind("GetSampleFloat32", SampleFloat32, band); err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(p.samples[band])), nil
}

// SetSampleFloat32 sets band's sample from a float32.
func (p *Pixel) SetSampleFloat32(band int, v float32) error {
	if err := p.checkKind("SetSampleFloat32", SampleFloat32, band); err != nil {
		return err
	}
	p.samples[band] = uint64(math.Float32bits(v))
	return nil
}

// GetSampleFloat64 returns band's sample reinterpreted as float64.
func (p *Pixel) GetSampleFloat64(band int) (float64, error) {
	if err := p.checkKind("GetSampleFloat64", SampleFloat64, band); err != nil {
		return 0, err
	}
	return math.Float64frombits(p.samples[band]), nil
}

// SetSampleFloat64 sets band's sample from a float64.
func (p *Pixel) SetSampleFloat64(band int, v float64) error {
	if err := p.checkKind("SetSampleFloat64", SampleFloat64, band); err != nil {
		return err
	}
	p.samples[band] = math.Float64bits(v)
	return nil
}

// rawSample returns the raw bit pattern stored for band, with no kind check.
// Used internally by Tile/Codec where the sample kind has already been
// validated once at a higher level.
func (p *Pixel) rawSample(band int) uint64 { return p.samples[band] }

func (p *Pixel) setRawSample(band int, v uint64) { p.samples[band] = v }

// RawSample is the exported form of rawSample, for codec/blob serialization
// code that needs to move a sample's bit pattern without going through a
// kind-specific accessor.
func (p *Pixel) RawSample(band int) uint64 { return p.rawSample(band) }

// SetRawSample is the exported form of setRawSample.
func (p *Pixel) SetRawSample(band int, v uint64) { p.setRawSample(band, v) }

// IsOpaque reports whether the pixel's opacity flag is set.
func (p *Pixel) IsOpaque() bool { return p.opaque }

// IsTransparent is the negation of IsOpaque.
func (p *Pixel) IsTransparent() bool { return !p.opaque }

// SetOpaque sets the opacity flag to opaque.
func (p *Pixel) SetOpaque() { p.opaque = true }

// SetTransparent sets the opacity flag to transparent.
func (p *Pixel) SetTransparent() { p.opaque = false }

// AsFloat reinterprets band's sample as the widest numeric type the
// pixel's sample kind needs and returns it as a float64. Shared by the
// codec's progressive downscale box filter and stats' moment accumulator,
// the two places that need a single numeric view across every sample kind.
func (p *Pixel) AsFloat(band int) float64 {
	switch p.Sample {
	case SampleBit1, SampleBit2, SampleBit4, SampleUInt8:
		v, _ := p.GetSampleUInt8(band)
		return float64(v)
	case SampleInt8:
		v, _ := p.GetSampleInt8(band)
		return float64(v)
	case SampleUInt16:
		v, _ := p.GetSampleUInt16(band)
		return float64(v)
	case SampleInt16:
		v, _ := p.GetSampleInt16(band)
		return float64(v)
	case SampleUInt32:
		v, _ := p.GetSampleUInt32(band)
		return float64(v)
	case SampleInt32:
		v, _ := p.GetSampleInt32(band)
		return float64(v)
	case SampleFloat32:
		v, _ := p.GetSampleFloat32(band)
		return float64(v)
	case SampleFloat64:
		v, _ := p.GetSampleFloat64(band)
		return v
	default:
		return 0
	}
}

// SetFromFloat is the inverse of AsFloat, truncating/narrowing v to the
// pixel's sample kind.
func (p *Pixel) SetFromFloat(band int, v float64) {
	switch p.Sample {
	case SampleBit1, SampleBit2, SampleBit4, SampleUInt8:
		_ = p.SetSampleUInt8(band, uint8(int64(v)))
	case SampleInt8:
		_ = p.SetSampleInt8(band, int8(int64(v)))
	case SampleUInt16:
		_ = p.SetSampleUInt16(band, uint16(int64(v)))
	case SampleInt16:
		_ = p.SetSampleInt16(band, int16(int64(v)))
	case SampleUInt32:
		_ = p.SetSampleUInt32(band, uint32(int64(v)))
	case SampleInt32:
		_ = p.SetSampleInt32(band, int32(int64(v)))
	case SampleFloat32:
		_ = p.SetSampleFloat32(band, float32(v))
	case SampleFloat64:
		_ = p.SetSampleFloat64(band, v)
	}
}

// Equal compares two pixels bitwise across all fields, including opacity.
// Float samples compare by bit pattern (so NaN == NaN here), per spec §3.
func (p Pixel) Equal(other Pixel) bool {
	if p.Sample != other.Sample || p.Kind != other.Kind || p.Bands != other.Bands || p.opaque != other.opaque {
		return false
	}
	for i := 0; i < p.Bands; i++ {
		if p.samples[i] != other.samples[i] {
			return false
		}
	}
	return true
}

// Compare is an alias for Equal matching spec §4.A's operation name.
func (p Pixel) Compare(other Pixel) bool { return p.Equal(other) }
