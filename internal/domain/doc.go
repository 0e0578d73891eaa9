// Package domain models block-model cross-section data.
//
// # Inputs
//
// A cross-section request carries three heterogeneous record sets exported by
// mine-planning packages (Datamine, Vulcan, Surpac CSV/STR dumps converted to
// JSON upstream) plus the user-drawn section line:
//
//	blocks     block-model cells: centroid, extents, rock code, display colour, grade
//	elevation  topography samples: either lng/lat or projected easting/northing
//	pit        pit-boundary vertices, or precomputed distance/elevation pairs
//
// The same quantity arrives under many column names ("centroid_x", "XC", "x",
// "easting"). [NormalizeRequest] maps every record onto the canonical [Block],
// [ElevationPoint], [PitVertex] and [PitSample] types before any geometry runs.
// Records missing a required numeric field are dropped without error.
//
// # Coordinate systems
//
// Line endpoints are always geodetic (WGS84 degrees). Block centroids are always
// in the request's source projection, an EPSG code such as "EPSG:32652"
// (WGS84 / UTM zone 52N). Elevation and pit clouds may be either; the section
// package detects geodetic clouds by coordinate magnitude.
//
// Planar points use [orb.Point] ordering: X is longitude/easting, Y is
// latitude/northing.
//
// # Footprints
//
// A block footprint is the axis-aligned rectangle centred on the block centroid.
// When the record carries no separate depth ("dim_y") the depth is assumed equal
// to the width.
package domain
