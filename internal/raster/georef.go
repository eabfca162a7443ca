package raster

// Corner identifies which corner of a raster a georef_corner anchor refers
// to.
type Corner uint8

const (
	CornerUpperLeft Corner = iota
	CornerUpperRight
	CornerLowerLeft
	CornerLowerRight
)

// GeoRef is a tile's affine georeference: spatial reference, per-axis pixel
// resolution, and geographic extent. All three constructors below compute
// the same fields from different anchor conventions (spec §4.C), grounded
// on the teacher's GeoInfo/TFW anchor handling in internal/cog.
type GeoRef struct {
	SRID    int
	HRes    float64 // horizontal pixel resolution, CRS units/pixel
	VRes    float64 // vertical pixel resolution, CRS units/pixel
	MinX    float64
	MinY    float64
	MaxX    float64
	MaxY    float64
}

// GeorefCenter builds a GeoRef from the coordinates of the raster's center
// pixel, given the raster's pixel dimensions.
func GeorefCenter(srid int, hres, vres, cx, cy float64, width, height int) (GeoRef, error) {
	const op = "GeorefCenter"
	if hres <= 0 || vres <= 0 {
		return GeoRef{}, errf(op, KindInvalidArgument, "resolutions must be positive, got hres=%g vres=%g", hres, vres)
	}
	if width <= 0 || height <= 0 {
		return GeoRef{}, errf(op, KindInvalidArgument, "dimensions must be positive, got %dx%d", width, height)
	}
	halfW := float64(width) * hres / 2
	halfH := float64(height) * vres / 2
	return GeoRef{
		SRID: srid, HRes: hres, VRes: vres,
		MinX: cx - halfW, MaxX: cx + halfW,
		MinY: cy - halfH, MaxY: cy + halfH,
	}, nil
}

// GeorefCorner builds a GeoRef from the coordinates of one named corner.
func GeorefCorner(srid int, hres, vres, x, y float64, corner Corner, width, height int) (GeoRef, error) {
	const op = "GeorefCorner"
	if hres <= 0 || vres <= 0 {
		return GeoRef{}, errf(op, KindInvalidArgument, "resolutions must be positive, got hres=%g vres=%g", hres, vres)
	}
	if width <= 0 || height <= 0 {
		return GeoRef{}, errf(op, KindInvalidArgument, "dimensions must be positive, got %dx%d", width, height)
	}
	w := float64(width) * hres
	h := float64(height) * vres

	var minX, minY float64
	switch corner {
	case CornerUpperLeft:
		minX, minY = x, y-h
	case CornerUpperRight:
		minX, minY = x-w, y-h
	case CornerLowerLeft:
		minX, minY = x, y
	case CornerLowerRight:
		minX, minY = x-w, y
	default:
		return GeoRef{}, errf(op, KindInvalidArgument, "invalid corner %d", corner)
	}
	return GeoRef{
		SRID: srid, HRes: hres, VRes: vres,
		MinX: minX, MaxX: minX + w,
		MinY: minY, MaxY: minY + h,
	}, nil
}

// GeorefFrame builds a GeoRef from an explicit bounding box, deriving
// resolutions from the extent and the raster's pixel dimensions. Rejects
// an inverted frame (max <= min on either axis).
func GeorefFrame(srid int, minX, minY, maxX, maxY float64, width, height int) (GeoRef, error) {
	const op = "GeorefFrame"
	if width <= 0 || height <= 0 {
		return GeoRef{}, errf(op, KindInvalidArgument, "dimensions must be positive, got %dx%d", width, height)
	}
	if maxX <= minX || maxY <= minY {
		return GeoRef{}, errf(op, KindInvalidArgument, "inverted frame: (%g,%g)-(%g,%g)", minX, minY, maxX, maxY)
	}
	return GeoRef{
		SRID: srid,
		HRes: (maxX - minX) / float64(width),
		VRes: (maxY - minY) / float64(height),
		MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY,
	}, nil
}
