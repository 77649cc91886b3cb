package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Belgian Lambert 72 (EPSG:31370): Lambert conformal conic with two standard parallels on
// the International 1924 ellipsoid, datum Belge 1972.
const (
	bd72A = 6378388.0
	bd72F = 1 / 297.0

	lambertLat1 = 51.16666723333333
	lambertLat2 = 49.8333339
	lambertLon0 = 4.367486666666666
	lambertX0   = 150000.013
	lambertY0   = 5400088.438

	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563
)

// BD72 to WGS84 position-vector Helmert parameters (metres, arc-seconds, ppm).
var bd72ToWGS84 = helmert{
	tx: -106.8686, ty: 52.2978, tz: -103.7239,
	rx: 0.3366, ry: -0.457, rz: 1.8422,
	s: -1.2747,
}

// LatLon is a WGS84 position in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type ellipsoid struct {
	a, e2 float64
}

func newEllipsoid(a, f float64) ellipsoid {
	return ellipsoid{a: a, e2: f * (2 - f)}
}

var (
	intl1924 = newEllipsoid(bd72A, bd72F)
	wgs84    = newEllipsoid(wgs84A, wgs84F)
)

type conic struct {
	ell    ellipsoid
	e      float64
	n      float64
	aF     float64
	lambda float64
}

var lambert72 = newConic(intl1924)

func newConic(ell ellipsoid) conic {
	e := math.Sqrt(ell.e2)
	phi1, phi2 := radians(lambertLat1), radians(lambertLat2)
	m := func(phi float64) float64 {
		s := math.Sin(phi)
		return math.Cos(phi) / math.Sqrt(1-ell.e2*s*s)
	}
	t := func(phi float64) float64 {
		s := math.Sin(phi)
		return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*s)/(1+e*s), e/2)
	}

	n := (math.Log(m(phi1)) - math.Log(m(phi2))) / (math.Log(t(phi1)) - math.Log(t(phi2)))
	F := m(phi1) / (n * math.Pow(t(phi1), n))
	return conic{ell: ell, e: e, n: n, aF: ell.a * F, lambda: radians(lambertLon0)}
}

// project maps geodetic radians on the conic's ellipsoid to grid metres. The latitude of
// origin is the pole, so rho0 is zero.
func (c conic) project(phi, lambda float64) orb.Point {
	s := math.Sin(phi)
	t := math.Tan(math.Pi/4-phi/2) / math.Pow((1-c.e*s)/(1+c.e*s), c.e/2)
	rho := c.aF * math.Pow(t, c.n)
	theta := c.n * (lambda - c.lambda)
	return orb.Point{lambertX0 + rho*math.Sin(theta), lambertY0 - rho*math.Cos(theta)}
}

func (c conic) unproject(p orb.Point) (phi, lambda float64) {
	dx, dy := p[0]-lambertX0, lambertY0-p[1]
	rho := math.Hypot(dx, dy)
	theta := math.Atan2(dx, dy)
	t := math.Pow(rho/c.aF, 1/c.n)

	phi = math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 10; i++ {
		s := math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-c.e*s)/(1+c.e*s), c.e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}
	return phi, theta/c.n + c.lambda
}

type helmert struct {
	tx, ty, tz float64
	rx, ry, rz float64
	s          float64
}

func (h helmert) inverse() helmert {
	return helmert{tx: -h.tx, ty: -h.ty, tz: -h.tz, rx: -h.rx, ry: -h.ry, rz: -h.rz, s: -h.s}
}

func (h helmert) apply(x, y, z float64) (float64, float64, float64) {
	const arcsec = math.Pi / (180 * 3600)
	rx, ry, rz := h.rx*arcsec, h.ry*arcsec, h.rz*arcsec
	k := 1 + h.s*1e-6
	return h.tx + k*(x-rz*y+ry*z),
		h.ty + k*(rz*x+y-rx*z),
		h.tz + k*(-ry*x+rx*y+z)
}

func (e ellipsoid) toGeocentric(phi, lambda float64) (float64, float64, float64) {
	s := math.Sin(phi)
	nu := e.a / math.Sqrt(1-e.e2*s*s)
	return nu * math.Cos(phi) * math.Cos(lambda),
		nu * math.Cos(phi) * math.Sin(lambda),
		nu * (1 - e.e2) * s
}

func (e ellipsoid) fromGeocentric(x, y, z float64) (phi, lambda float64) {
	lambda = math.Atan2(y, x)
	p := math.Hypot(x, y)
	phi = math.Atan2(z, p*(1-e.e2))
	for i := 0; i < 10; i++ {
		s := math.Sin(phi)
		nu := e.a / math.Sqrt(1-e.e2*s*s)
		next := math.Atan2(z+e.e2*nu*s, p)
		if math.Abs(next-phi) < 1e-12 {
			return next, lambda
		}
		phi = next
	}
	return phi, lambda
}

// ToWGS84 converts a Lambert 72 point (metres) to WGS84 degrees.
func ToWGS84(p orb.Point) LatLon {
	phi, lambda := lambert72.unproject(p)
	x, y, z := intl1924.toGeocentric(phi, lambda)
	x, y, z = bd72ToWGS84.apply(x, y, z)
	phi, lambda = wgs84.fromGeocentric(x, y, z)
	return LatLon{Lat: degrees(phi), Lon: degrees(lambda)}
}

// FromWGS84 converts WGS84 degrees to a Lambert 72 point (metres).
func FromWGS84(ll LatLon) orb.Point {
	x, y, z := wgs84.toGeocentric(radians(ll.Lat), radians(ll.Lon))
	x, y, z = bd72ToWGS84.inverse().apply(x, y, z)
	phi, lambda := intl1924.fromGeocentric(x, y, z)
	return lambert72.project(phi, lambda)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
