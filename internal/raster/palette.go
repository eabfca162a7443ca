package raster

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// RGBA is a color-table entry. Defined locally (rather than reusing
// image/color.RGBA) so Palette stays independent of the image package —
// tiles built on sub-byte and float sample kinds have no natural relation
// to image.Image.
type RGBA struct {
	R, G, B, A uint8
}

// Palette is an ordered table of 1..256 RGBA entries. Tile samples of
// Palette kind are indexes into a Palette.
type Palette struct {
	entries []RGBA
}

// NewPalette creates a palette of n zero-valued (black, opaque) entries.
func NewPalette(n int) (*Palette, error) {
	if n < 1 || n > 256 {
		return nil, errf("NewPalette", KindInvalidArgument, "palette size %d out of range [1,256]", n)
	}
	p := &Palette{entries: make([]RGBA, n)}
	for i := range p.entries {
		p.entries[i] = RGBA{A: 255}
	}
	return p, nil
}

// Len returns the number of entries.
func (p *Palette) Len() int { return len(p.entries) }

// SetEntry sets the i-th entry's RGBA value.
func (p *Palette) SetEntry(i int, r, g, b, a uint8) error {
	if i < 0 || i >= len(p.entries) {
		return errf("SetEntry", KindValueOutOfRange, "index %d out of range [0,%d)", i, len(p.entries))
	}
	p.entries[i] = RGBA{r, g, b, a}
	return nil
}

// SetEntryHex sets the i-th entry from a "#RRGGBB" string; alpha defaults
// to 255.
func (p *Palette) SetEntryHex(i int, hex string) error {
	if len(hex) != 7 || hex[0] != '#' {
		return errf("SetEntryHex", KindInvalidArgument, "expected \"#RRGGBB\", got %q", hex)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex[1:3], "%02x", &r); err != nil {
		return errf("SetEntryHex", KindInvalidArgument, "bad red component in %q: %v", hex, err)
	}
	if _, err := fmt.Sscanf(hex[3:5], "%02x", &g); err != nil {
		return errf("SetEntryHex", KindInvalidArgument, "bad green component in %q: %v", hex, err)
	}
	if _, err := fmt.Sscanf(hex[5:7], "%02x", &b); err != nil {
		return errf("SetEntryHex", KindInvalidArgument, "bad blue component in %q: %v", hex, err)
	}
	return p.SetEntry(i, r, g, b, 255)
}

// Entry returns the i-th entry.
func (p *Palette) Entry(i int) (RGBA, error) {
	if i < 0 || i >= len(p.entries) {
		return RGBA{}, errf("Entry", KindValueOutOfRange, "index %d out of range [0,%d)", i, len(p.entries))
	}
	return p.entries[i], nil
}

// Entries returns a snapshot copy of all entries in index order.
func (p *Palette) Entries() []RGBA {
	out := make([]RGBA, len(p.entries))
	copy(out, p.entries)
	return out
}

// IndexOf returns the index of the first entry that exactly matches the
// given RGBA value. A miss is an error, not a nearest-color search.
func (p *Palette) IndexOf(r, g, b, a uint8) (int, error) {
	want := RGBA{r, g, b, a}
	for i, e := range p.entries {
		if e == want {
			return i, nil
		}
	}
	return -1, errf("IndexOf", KindInvalidArgument, "no exact match for rgba(%d,%d,%d,%d)", r, g, b, a)
}

// Clone returns an independent copy of the palette.
func (p *Palette) Clone() *Palette {
	return &Palette{entries: append([]RGBA(nil), p.entries...)}
}

// Classify returns the (SampleKind, PixelKind) this palette would require
// if used to index a tile, per spec §3's classifier rules:
//   - all entries gray (R==G==B) and count==2 => Monochrome-equivalent
//   - all entries gray => Grayscale at the tightest width holding count
//   - otherwise => Palette (color) at the tightest width holding count
func (p *Palette) Classify() (SampleKind, PixelKind) {
	n := len(p.entries)
	gray := true
	for _, e := range p.entries {
		if e.R != e.G || e.G != e.B {
			gray = false
			break
		}
	}

	width := tightestWidth(n)

	if gray && n == 2 {
		return SampleBit1, Monochrome
	}
	if gray {
		return width, Grayscale
	}
	return width, Palette
}

// tightestWidth returns the smallest sample kind whose value space holds
// at least n distinct indexes, per spec §3: 2=>Bit1, 3-4=>Bit2, 5-16=>Bit4,
// <=256=>UInt8.
func tightestWidth(n int) SampleKind {
	switch {
	case n <= 2:
		return SampleBit1
	case n <= 4:
		return SampleBit2
	case n <= 16:
		return SampleBit4
	default:
		return SampleUInt8
	}
}

// paletteMagic is the §6.2 wire-format magic for a serialized palette.
var paletteMagic = [2]byte{0x00, 0xf2}

// Serialize encodes the palette per spec §6.2: magic, entry-count-minus-1,
// an alpha-present flag, N RGB(A) triples/quads in index order, and a
// trailing CRC32 over everything preceding it.
func (p *Palette) Serialize() []byte {
	n := len(p.entries)
	hasAlpha := false
	for _, e := range p.entries {
		if e.A != 255 {
			hasAlpha = true
			break
		}
	}

	compSize := 3
	if hasAlpha {
		compSize = 4
	}

	buf := make([]byte, 0, 2+1+1+n*compSize+4)
	buf = append(buf, paletteMagic[0], paletteMagic[1])
	buf = append(buf, byte(n-1))
	flags := byte(0)
	if hasAlpha {
		flags |= 1
	}
	buf = append(buf, flags)
	for _, e := range p.entries {
		buf = append(buf, e.R, e.G, e.B)
		if hasAlpha {
			buf = append(buf, e.A)
		}
	}

	crc := crc32.ChecksumIEEE(buf)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc)
	buf = append(buf, crcBuf[:]...)
	return buf
}

// DeserializePalette parses the §6.2 wire format, validating the magic and
// trailing CRC32.
func DeserializePalette(data []byte) (*Palette, error) {
	const op = "DeserializePalette"
	if len(data) < 2+1+1+4 {
		return nil, errf(op, KindCorruptBlob, "palette blob too short (%d bytes)", len(data))
	}
	if data[0] != paletteMagic[0] || data[1] != paletteMagic[1] {
		return nil, errf(op, KindCorruptBlob, "bad palette magic")
	}

	body := data[:len(data)-4]
	wantCRC := binary.BigEndian.Uint32(data[len(data)-4:])
	if gotCRC := crc32.ChecksumIEEE(body); gotCRC != wantCRC {
		return nil, errf(op, KindCorruptBlob, "crc mismatch: got %08x want %08x", gotCRC, wantCRC)
	}

	n := int(data[2]) + 1
	flags := data[3]
	hasAlpha := flags&1 != 0
	compSize := 3
	if hasAlpha {
		compSize = 4
	}

	want := 2 + 1 + 1 + n*compSize + 4
	if len(data) != want {
		return nil, errf(op, KindCorruptBlob, "palette length mismatch: got %d want %d", len(data), want)
	}

	pal, err := NewPalette(n)
	if err != nil {
		return nil, err
	}
	off := 4
	for i := 0; i < n; i++ {
		r, g, b := data[off], data[off+1], data[off+2]
		a := uint8(255)
		off += 3
		if hasAlpha {
			a = data[off]
			off++
		}
		_ = pal.SetEntry(i, r, g, b, a)
	}
	return pal, nil
}
