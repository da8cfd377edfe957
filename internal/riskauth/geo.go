package riskauth

import (
	"fmt"
	"math"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoInfo is what the location evaluator needs about an IP.
type GeoInfo struct {
	Country        string
	Latitude       float64
	Longitude      float64
	AnonymousProxy bool
}

// GeoResolver turns an IP into location facts. Resolution failures are
// treated as missing evidence, not assessment failures.
type GeoResolver interface {
	Resolve(ip string) (*GeoInfo, error)
}

// MaxMindResolver resolves against a local GeoLite2/GeoIP2 City database.
type MaxMindResolver struct {
	reader *geoip2.Reader
}

// NewMaxMindResolver opens the city database at the given path.
func NewMaxMindResolver(cityPath string) (*MaxMindResolver, error) {
	reader, err := geoip2.Open(cityPath)
	if err != nil {
		return nil, fmt.Errorf("open geoip city database: %w", err)
	}
	return &MaxMindResolver{reader: reader}, nil
}

func (r *MaxMindResolver) Resolve(ip string) (*GeoInfo, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("invalid ip %q", ip)
	}
	city, err := r.reader.City(parsed)
	if err != nil {
		return nil, fmt.Errorf("geoip lookup: %w", err)
	}
	return &GeoInfo{
		Country:        city.Country.IsoCode,
		Latitude:       city.Location.Latitude,
		Longitude:      city.Location.Longitude,
		AnonymousProxy: city.Traits.IsAnonymousProxy,
	}, nil
}

func (r *MaxMindResolver) Close() error {
	return r.reader.Close()
}

const earthRadiusKM = 6371.0

// haversineKM is the great-circle distance between two coordinates.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// maxTravelSpeedKMH is the fastest plausible legitimate travel between two
// logins.
const maxTravelSpeedKMH = 900.0
