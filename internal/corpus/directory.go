package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corpuschat/corpuschat/internal/ragapi"
)

// StoreAPI is the slice of the remote index service the directory needs.
type StoreAPI interface {
	CreateStore(ctx context.Context, params *ragapi.CreateStoreParams) (*ragapi.RemoteStore, error)
	ListStores(ctx context.Context) ([]*ragapi.RemoteStore, error)
	DeleteStore(ctx context.Context, storeID string, force bool) error
}

// ReconcileReport summarizes a duplicate-store reconciliation pass.
type ReconcileReport struct {
	Found      int      `json:"found"`
	Deleted    int      `json:"deleted"`
	KeptID     string   `json:"keptId,omitempty"`
	DeletedIDs []string `json:"deletedIds,omitempty"`
}

// StoreGroup is the inspection view of all stores sharing one display name.
type StoreGroup struct {
	DisplayName string                `json:"displayName"`
	Stores      []*ragapi.RemoteStore `json:"stores"`
	Duplicate   bool                  `json:"duplicate"`
}

// Directory resolves logical store names to remote stores. The remote
// system does not make displayName unique, so the directory owns the
// invariant that at most one store per name is in use: when several exist,
// the one with the greatest active document count is canonical and the rest
// get cleaned up.
type Directory struct {
	api    StoreAPI
	ledger *Ledger
}

func NewDirectory(api StoreAPI, ledger *Ledger) *Directory {
	return &Directory{api: api, ledger: ledger}
}

// List returns every remote store visible to the credential in use.
func (d *Directory) List(ctx context.Context) ([]*ragapi.RemoteStore, error) {
	return d.api.ListStores(ctx)
}

// FindByDisplayName returns all stores carrying the given display name.
func (d *Directory) FindByDisplayName(ctx context.Context, name string) ([]*ragapi.RemoteStore, error) {
	stores, err := d.api.ListStores(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*ragapi.RemoteStore
	for _, store := range stores {
		if store.DisplayName == name {
			matches = append(matches, store)
		}
	}
	return matches, nil
}

// ResolveCanonical picks the single store to treat as authoritative for
// name, or nil when none exists. With several candidates the greatest
// active document count wins, first-encountered on ties. The count is a
// heuristic proxy for "most recently fully uploaded", not a guaranteed
// recency signal.
func (d *Directory) ResolveCanonical(ctx context.Context, name string) (*ragapi.RemoteStore, error) {
	matches, err := d.FindByDisplayName(ctx, name)
	if err != nil {
		return nil, err
	}
	return canonicalOf(matches), nil
}

// GetOrCreate resolves the canonical store for name, creating one when none
// exists. When more than one match existed, the non-canonical ones are
// deleted as a side effect: every invocation leaves at most one store per
// display name.
func (d *Directory) GetOrCreate(ctx context.Context, name string) (*ragapi.RemoteStore, bool, error) {
	matches, err := d.FindByDisplayName(ctx, name)
	if err != nil {
		return nil, false, err
	}

	if len(matches) == 0 {
		store, err := d.api.CreateStore(ctx, &ragapi.CreateStoreParams{DisplayName: name})
		if err != nil {
			return nil, false, fmt.Errorf("create store %q: %w", name, err)
		}
		slog.Info("store created", "name", name, "store", store.StoreID)
		return store, true, nil
	}

	canonical := canonicalOf(matches)
	for _, store := range matches {
		if store.StoreID == canonical.StoreID {
			continue
		}
		slog.Warn("duplicate store found, deleting", "name", name, "store", store.StoreID, "documents", store.ActiveDocumentCount, "kept", canonical.StoreID)
		if err := d.Delete(ctx, store.StoreID); err != nil {
			return nil, false, fmt.Errorf("delete duplicate store %s: %w", store.StoreID, err)
		}
	}

	return canonical, false, nil
}

// Delete removes a store from the remote system (force semantics) and
// clears the corresponding ledger entry.
func (d *Directory) Delete(ctx context.Context, storeID string) error {
	if err := d.api.DeleteStore(ctx, storeID, true); err != nil {
		return fmt.Errorf("delete store %s: %w", storeID, err)
	}
	if err := d.ledger.Clear(storeID); err != nil {
		slog.Error("ledger clear after store delete failed", "store", storeID, "error", err)
	}
	return nil
}

// ReconcileDuplicates applies the canonical-selection policy for name
// without performing a sync: all non-canonical stores are deleted.
func (d *Directory) ReconcileDuplicates(ctx context.Context, name string) (*ReconcileReport, error) {
	matches, err := d.FindByDisplayName(ctx, name)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Found: len(matches)}
	if len(matches) == 0 {
		return report, nil
	}

	canonical := canonicalOf(matches)
	report.KeptID = canonical.StoreID
	for _, store := range matches {
		if store.StoreID == canonical.StoreID {
			continue
		}
		if err := d.Delete(ctx, store.StoreID); err != nil {
			return report, err
		}
		report.Deleted++
		report.DeletedIDs = append(report.DeletedIDs, store.StoreID)
	}

	if report.Deleted > 0 {
		slog.Info("store duplicates reconciled", "name", name, "kept", report.KeptID, "deleted", report.Deleted)
	}
	return report, nil
}

// Inspect groups all remote stores by display name and flags groups with
// more than one member. Read-only; nothing is deleted.
func (d *Directory) Inspect(ctx context.Context) ([]*StoreGroup, error) {
	stores, err := d.api.ListStores(ctx)
	if err != nil {
		return nil, err
	}

	byName := map[string]*StoreGroup{}
	var order []string
	for _, store := range stores {
		group, ok := byName[store.DisplayName]
		if !ok {
			group = &StoreGroup{DisplayName: store.DisplayName}
			byName[store.DisplayName] = group
			order = append(order, store.DisplayName)
		}
		group.Stores = append(group.Stores, store)
		group.Duplicate = len(group.Stores) > 1
	}

	groups := make([]*StoreGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, byName[name])
	}
	return groups, nil
}

// canonicalOf picks the store with the greatest active document count,
// first-encountered on ties.
func canonicalOf(stores []*ragapi.RemoteStore) *ragapi.RemoteStore {
	var best *ragapi.RemoteStore
	for _, store := range stores {
		if best == nil || store.ActiveDocumentCount > best.ActiveDocumentCount {
			best = store
		}
	}
	return best
}
