package domain

import "math"

// WGS84 ellipsoid.
const (
	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563
	wgs84B = (1 - wgs84F) * wgs84A

	// Mean earth radius used when the ellipsoidal solution does not converge.
	earthRadiusMeters = 6371008.8

	vincentyMaxIterations = 200
	vincentyTolerance     = 1e-12
)

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// DistanceMeters returns the surface distance between two points on the WGS84 ellipsoid
// using Vincenty's inverse formula. Nearly antipodal points, where the iteration fails to
// converge, fall back to the spherical haversine distance.
func DistanceMeters(from, to Coordinates) float64 {
	if d, ok := vincenty(from, to); ok {
		return d
	}
	return Haversine(from, to)
}

// Haversine returns the great-circle distance in meters on a spherical earth.
func Haversine(from, to Coordinates) float64 {
	lat1 := toRad(from.Lat)
	lat2 := toRad(to.Lat)
	dLat := lat2 - lat1
	dLon := toRad(to.Lon - from.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

func vincenty(from, to Coordinates) (float64, bool) {
	l := toRad(to.Lon - from.Lon)
	u1 := math.Atan((1 - wgs84F) * math.Tan(toRad(from.Lat)))
	u2 := math.Atan((1 - wgs84F) * math.Tan(toRad(to.Lat)))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := l
	var sinSigma, cosSigma, sigma, cos2Alpha, cos2SigmaM float64

	converged := false
	for i := 0; i < vincentyMaxIterations; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)
		sinSigma = math.Hypot(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)
		if sinSigma == 0 {
			// coincident points
			return 0, true
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cos2Alpha = 1 - sinAlpha*sinAlpha
		cos2SigmaM = 0
		if cos2Alpha != 0 {
			// zero on equatorial lines
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		}

		c := wgs84F / 16 * cos2Alpha * (4 + wgs84F*(4-3*cos2Alpha))
		prev := lambda
		lambda = l + (1-c)*wgs84F*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-prev) < vincentyTolerance {
			converged = true
			break
		}
	}
	if !converged {
		return 0, false
	}

	uSq := cos2Alpha * (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)
	a := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	b := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := b * sinSigma * (cos2SigmaM + b/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		b/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	return wgs84B * a * (sigma - deltaSigma), true
}
