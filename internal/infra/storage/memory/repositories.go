package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	domainlistings "automarket/internal/domain/listings"
)

// ErrConcurrentUpdate mirrors the mongo repositories: Save on a stale version
// is refused instead of overwriting a newer write.
var ErrConcurrentUpdate = errors.New("memory: concurrent update detected")

// ListingRepository is an in-memory implementation for tests and demos.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

// NewListingRepository builds an empty repository.
func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

// ByID returns a listing or domainlistings.ErrNotFound.
func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return listing, nil
}

// Save stores/updates a listing entry, refusing stale versions.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[listing.ID]; ok && stored.Version != listing.Version {
		return ErrConcurrentUpdate
	}
	listing.Version++
	r.items[listing.ID] = listing
	return nil
}

// ListBySeller returns every listing owned by the seller.
func (r *ListingRepository) ListBySeller(ctx context.Context, seller domainlistings.SellerID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainlistings.Listing, 0)
	for _, listing := range r.items {
		if listing.Seller == seller {
			matches = append(matches, listing)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// Search returns listings that satisfy provided filters.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return domainlistings.SearchResult{}, ctx.Err()
			default:
			}
		}

		if opts.OnlyActive && !listing.Active {
			continue
		}
		if opts.Seller != "" && listing.Seller != opts.Seller {
			continue
		}
		if len(opts.Availabilities) > 0 && !availabilityIncluded(listing.Availability, opts.Availabilities) {
			continue
		}
		if opts.Brand != "" && !strings.EqualFold(listing.Vehicle.Brand, opts.Brand) {
			continue
		}
		if opts.Model != "" && !strings.EqualFold(listing.Vehicle.Model, opts.Model) {
			continue
		}
		if opts.Fuel != "" && listing.Vehicle.Fuel != opts.Fuel {
			continue
		}
		if opts.Gearbox != "" && listing.Vehicle.Gearbox != opts.Gearbox {
			continue
		}
		if opts.Category != "" && !strings.EqualFold(listing.Vehicle.Category, opts.Category) {
			continue
		}
		if opts.Location != "" && !strings.Contains(strings.ToLower(listing.Location), opts.Location) {
			continue
		}
		if opts.Query != "" && !matchQuery(listing, opts.Query) {
			continue
		}
		if opts.PriceMinCents > 0 && listing.PriceCents < opts.PriceMinCents {
			continue
		}
		if opts.PriceMaxCents > 0 && listing.PriceCents > opts.PriceMaxCents {
			continue
		}
		if opts.YearMin > 0 && listing.Vehicle.Year < opts.YearMin {
			continue
		}
		if opts.YearMax > 0 && listing.Vehicle.Year > opts.YearMax {
			continue
		}
		if opts.MaxMileageKM > 0 && listing.Vehicle.MileageKM > opts.MaxMileageKM {
			continue
		}
		matches = append(matches, listing)
	}

	sort.Slice(matches, func(i, j int) bool {
		switch opts.Sort {
		case domainlistings.SortByPriceAsc:
			if matches[i].PriceCents == matches[j].PriceCents {
				return matches[i].CreatedAt.After(matches[j].CreatedAt)
			}
			return matches[i].PriceCents < matches[j].PriceCents
		case domainlistings.SortByPriceDesc:
			if matches[i].PriceCents == matches[j].PriceCents {
				return matches[i].CreatedAt.After(matches[j].CreatedAt)
			}
			return matches[i].PriceCents > matches[j].PriceCents
		case domainlistings.SortByMileageAsc:
			if matches[i].Vehicle.MileageKM == matches[j].Vehicle.MileageKM {
				return matches[i].PriceCents < matches[j].PriceCents
			}
			return matches[i].Vehicle.MileageKM < matches[j].Vehicle.MileageKM
		case domainlistings.SortByYearDesc:
			if matches[i].Vehicle.Year == matches[j].Vehicle.Year {
				return matches[i].PriceCents < matches[j].PriceCents
			}
			return matches[i].Vehicle.Year > matches[j].Vehicle.Year
		default:
			if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
				return matches[i].PriceCents < matches[j].PriceCents
			}
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
	})

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	return domainlistings.SearchResult{
		Items: matches[start:end],
		Total: total,
	}, nil
}

func matchQuery(listing *domainlistings.Listing, needle string) bool {
	if listing == nil {
		return false
	}
	full := strings.ToLower(strings.Join([]string{
		listing.Title,
		listing.Vehicle.Brand,
		listing.Vehicle.Model,
		listing.Vehicle.Category,
		listing.Location,
	}, " "))
	return strings.Contains(full, needle)
}

func availabilityIncluded(current domainlistings.Availability, allowed []domainlistings.Availability) bool {
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
