package directory

import (
	"context"
	"sort"

	"github.com/example/roadside-dispatch/internal/geo"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

// Directory answers nearby-provider queries. Implementations are
// read-only: claiming a provider is the storage port's job.
type Directory interface {
	// Nearby returns online providers with a recorded location whose
	// great-circle distance from origin is within radiusKm (inclusive),
	// sorted nearest first. serviceType narrows candidates by exact,
	// case-sensitive membership; empty means no service-type filter.
	Nearby(ctx context.Context, origin models.Coordinate, serviceType string, radiusKm float64) ([]models.Candidate, error)
}

// StoreDirectory scans provider profiles straight from the document
// store. Ties on distance keep the store's listing order, which for
// both store implementations is profile insertion order.
type StoreDirectory struct {
	Providers storage.ProviderStore
}

func NewStoreDirectory(providers storage.ProviderStore) *StoreDirectory {
	return &StoreDirectory{Providers: providers}
}

func (d *StoreDirectory) Nearby(ctx context.Context, origin models.Coordinate, serviceType string, radiusKm float64) ([]models.Candidate, error) {
	profiles, err := d.Providers.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	type hit struct {
		cand models.Candidate
		dist float64 // unrounded, used for ordering
	}
	hits := make([]hit, 0, len(profiles))
	for _, p := range profiles {
		if p.Status != models.PresenceOnline {
			continue
		}
		if p.Location == nil {
			continue
		}
		if serviceType != "" && !offersService(p.ServiceTypes, serviceType) {
			continue
		}
		dist := geo.DistanceKm(origin, *p.Location)
		if dist > radiusKm {
			continue
		}
		hits = append(hits, hit{
			cand: models.Candidate{
				ProviderID: p.UserID,
				Location:   *p.Location,
				DistanceKm: geo.RoundKm(dist),
			},
			dist: dist,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]models.Candidate, len(hits))
	for i, h := range hits {
		out[i] = h.cand
	}
	return out, nil
}

func offersService(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
