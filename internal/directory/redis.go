package directory

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/example/roadside-dispatch/internal/geo"
	"github.com/example/roadside-dispatch/internal/models"
)

// RedisDirectory keeps a GEO index of provider positions plus a small
// metadata hash per provider. It is a read replica of the document
// store's presence data, fed by the presence consumer; the store stays
// the claim authority.
type RedisDirectory struct {
	client *redis.Client
	geoKey string
}

func NewRedisDirectory(addr, password, geoKey string) *RedisDirectory {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisDirectory{client: c, geoKey: geoKey}
}

func (d *RedisDirectory) Close() error { return d.client.Close() }

func (d *RedisDirectory) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// Upsert mirrors one provider's presence into the index. Providers
// without a coordinate only get their metadata written; they stay out
// of the GEO set and therefore out of query results.
func (d *RedisDirectory) Upsert(ctx context.Context, p *models.ProviderProfile) error {
	if p.Location != nil {
		err := d.client.GeoAdd(ctx, d.geoKey, &redis.GeoLocation{
			Name:      p.UserID,
			Latitude:  p.Location.Lat,
			Longitude: p.Location.Lng,
		}).Err()
		if err != nil {
			return err
		}
	}
	return d.client.HSet(ctx, metaKey(p.UserID), map[string]interface{}{
		"status":        string(p.Status),
		"service_types": strings.Join(p.ServiceTypes, ","),
	}).Err()
}

func (d *RedisDirectory) Nearby(ctx context.Context, origin models.Coordinate, serviceType string, radiusKm float64) ([]models.Candidate, error) {
	locs, err := d.client.GeoSearchLocation(ctx, d.geoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  origin.Lng,
			Latitude:   origin.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.Candidate, 0, len(locs))
	for _, l := range locs {
		meta, err := d.client.HGetAll(ctx, metaKey(l.Name)).Result()
		if err != nil {
			return nil, err
		}
		if meta["status"] != string(models.PresenceOnline) {
			continue
		}
		if serviceType != "" && !offersService(splitTypes(meta["service_types"]), serviceType) {
			continue
		}
		out = append(out, models.Candidate{
			ProviderID: l.Name,
			Location:   models.Coordinate{Lat: l.Latitude, Lng: l.Longitude},
			DistanceKm: geo.RoundKm(l.Dist),
		})
	}
	return out, nil
}

func splitTypes(csv string) []string {
	if csv == "" {
		return nil
	}
	return strings.Split(csv, ",")
}

func metaKey(id string) string { return "provider:meta:" + id }

var _ Directory = (*RedisDirectory)(nil)
