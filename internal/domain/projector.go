package domain

import "github.com/paulmach/orb"

// WGS84 is the code of the geodetic system line endpoints are expressed in.
const WGS84 = "EPSG:4326"

// Projector converts planar coordinates between coordinate reference systems
// identified by EPSG-style codes, e.g. "EPSG:4326" and "EPSG:32652".
// Implementations must be deterministic and safe for concurrent use.
type Projector interface {
	Project(from, to string, p orb.Point) (orb.Point, error)
}
