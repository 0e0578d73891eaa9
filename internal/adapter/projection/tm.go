package projection

import "math"

// WGS84 ellipsoid and UTM grid constants.
const (
	semiMajor     = 6378137.0
	flattening    = 1 / 298.257223563
	utmScale      = 0.9996
	falseEasting  = 500000.0
	falseNorthing = 10000000.0
)

// transverseMercator is a Krüger n-series (sixth order) transverse Mercator
// projection on a fixed central meridian. It stays accurate to well under a
// millimetre several degrees outside a 6° UTM strip.
type transverseMercator struct {
	lon0     float64 // central meridian, radians
	northing float64 // false northing
}

// krugerSeries holds the rectifying radius and the forward (alpha) and
// inverse (beta) coefficients derived from the ellipsoid's third flattening.
type krugerSeries struct {
	radius float64
	alpha  [6]float64
	beta   [6]float64
}

var (
	tmEcc  = math.Sqrt(flattening * (2 - flattening))
	series = newKrugerSeries()
)

func newKrugerSeries() krugerSeries {
	n := flattening / (2 - flattening)
	n2 := n * n
	n3 := n2 * n
	n4 := n3 * n
	n5 := n4 * n
	n6 := n5 * n

	return krugerSeries{
		radius: semiMajor / (1 + n) * (1 + n2/4 + n4/64 + n6/256),
		alpha: [6]float64{
			n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180 - 127*n5/288 + 7891*n6/37800,
			13*n2/48 - 3*n3/5 + 557*n4/1440 + 281*n5/630 - 1983433*n6/1935360,
			61*n3/240 - 103*n4/140 + 15061*n5/26880 + 167603*n6/181440,
			49561*n4/161280 - 179*n5/168 + 6601661*n6/7257600,
			34729*n5/80640 - 3418889*n6/1995840,
			212378941 * n6 / 319334400,
		},
		beta: [6]float64{
			n/2 - 2*n2/3 + 37*n3/96 - n4/360 - 81*n5/512 + 96199*n6/604800,
			n2/48 + n3/15 - 437*n4/1440 + 46*n5/105 - 1118711*n6/3870720,
			17*n3/480 - 37*n4/840 - 209*n5/4480 + 5569*n6/90720,
			4397*n4/161280 - 11*n5/504 - 830251*n6/7257600,
			4583*n5/161280 - 108847*n6/3991680,
			20648693 * n6 / 638668800,
		},
	}
}

// utmProjection returns the grid of a UTM zone. Southern zones carry the
// 10,000 km false northing for every point, including those north of the
// equator.
func utmProjection(zone int, north bool) transverseMercator {
	tm := transverseMercator{lon0: radians(float64((zone-1)*6 - 180 + 3))}
	if !north {
		tm.northing = falseNorthing
	}
	return tm
}

// forward projects geographic degrees to easting/northing metres.
func (tm transverseMercator) forward(lon, lat float64) (easting, northing float64) {
	phi := radians(lat)
	lambda := radians(lon) - tm.lon0

	sinPhi := math.Sin(phi)
	tau := math.Sinh(math.Atanh(sinPhi) - tmEcc*math.Atanh(tmEcc*sinPhi))
	xiP := math.Atan2(tau, math.Cos(lambda))
	etaP := math.Atanh(math.Sin(lambda) / math.Sqrt(1+tau*tau))

	xi, eta := xiP, etaP
	for j, a := range series.alpha {
		k := 2 * float64(j+1)
		xi += a * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += a * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}

	return falseEasting + utmScale*series.radius*eta, tm.northing + utmScale*series.radius*xi
}

// inverse converts easting/northing metres back to geographic degrees.
func (tm transverseMercator) inverse(easting, northing float64) (lon, lat float64) {
	xi := (northing - tm.northing) / (utmScale * series.radius)
	eta := (easting - falseEasting) / (utmScale * series.radius)

	xiP, etaP := xi, eta
	for j, b := range series.beta {
		k := 2 * float64(j+1)
		xiP -= b * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= b * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	sinhEta := math.Sinh(etaP)
	cosXi := math.Cos(xiP)
	tauP := math.Sin(xiP) / math.Sqrt(sinhEta*sinhEta+cosXi*cosXi)
	lambda := math.Atan2(sinhEta, cosXi)

	return degrees(tm.lon0 + lambda), degrees(math.Atan(conformalToGeodetic(tauP)))
}

// conformalToGeodetic solves for tan(phi) given the conformal tan(phi') by
// Newton iteration.
func conformalToGeodetic(tauP float64) float64 {
	e2 := tmEcc * tmEcc
	tau := tauP
	for range 5 {
		sigma := math.Sinh(tmEcc * math.Atanh(tmEcc*tau/math.Sqrt(1+tau*tau)))
		tauI := tau*math.Sqrt(1+sigma*sigma) - sigma*math.Sqrt(1+tau*tau)
		delta := (tauP - tauI) / math.Sqrt(1+tauI*tauI) *
			(1 + (1-e2)*tau*tau) / ((1 - e2) * math.Sqrt(1+tau*tau))
		tau += delta
		if math.Abs(delta) < 1e-14 {
			break
		}
	}
	return tau
}

func radians(d float64) float64 { return d * math.Pi / 180 }

func degrees(r float64) float64 { return r * 180 / math.Pi }
