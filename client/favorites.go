package client

import (
	"context"
	"sync"
)

// FavoritesToggler flips favorite membership optimistically: the local set
// changes before the request is sent, and a failed request rolls the flip
// back. Favorites carry no money, so a briefly wrong heart icon is an
// acceptable trade for instant feedback; the cart never gets this treatment.
type FavoritesToggler struct {
	api *API

	mu    sync.Mutex
	items map[string]struct{}
}

func newFavoritesToggler(api *API) *FavoritesToggler {
	return &FavoritesToggler{
		api:   api,
		items: make(map[string]struct{}),
	}
}

// Fetch replaces the local set with the server's.
func (f *FavoritesToggler) Fetch(ctx context.Context) error {
	ids, err := f.api.FetchFavorites(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceLocked(ids)
	return nil
}

// Toggle flips membership locally, then confirms with the server. On
// success the server's authoritative set replaces the local one; on
// failure the flip is reverted and the error returned for a toast.
func (f *FavoritesToggler) Toggle(ctx context.Context, itemID string) error {
	f.mu.Lock()
	_, had := f.items[itemID]
	if had {
		delete(f.items, itemID)
	} else {
		f.items[itemID] = struct{}{}
	}
	f.mu.Unlock()

	ids, err := f.api.ToggleFavorite(ctx, itemID)
	if err != nil {
		f.mu.Lock()
		if had {
			f.items[itemID] = struct{}{}
		} else {
			delete(f.items, itemID)
		}
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.replaceLocked(ids)
	f.mu.Unlock()
	return nil
}

// Contains reports local membership.
func (f *FavoritesToggler) Contains(itemID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[itemID]
	return ok
}

// Items returns the local set in no particular order.
func (f *FavoritesToggler) Items() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.items))
	for id := range f.items {
		out = append(out, id)
	}
	return out
}

func (f *FavoritesToggler) replaceLocked(ids []string) {
	f.items = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		f.items[id] = struct{}{}
	}
}
