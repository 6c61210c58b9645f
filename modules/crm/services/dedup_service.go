package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
)

// MarkFileDuplicates scans rows in file order and marks every later row
// sharing the same non-empty normalized key as a duplicate. The first
// occurrence stays eligible. Returns the number of rows excluded. Decisions
// are made once, before batching, and never re-evaluated.
func MarkFileDuplicates(rows []migration.ResolvedRow, keyField string) int {
	seen := make(map[string]struct{}, len(rows))
	duplicates := 0
	for i := range rows {
		key := normalizeDedupKey(rows[i].Field(keyField))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			rows[i].Duplicate = true
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}
	return duplicates
}

func normalizeDedupKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Reconciler decides create vs. update per row by looking up the legacy
// identifier in the record store.
type Reconciler struct {
	store migration.RecordStore
	log   *logrus.Logger
}

func NewReconciler(store migration.RecordStore, log *logrus.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// ReconcileExisting fills ExistingID on every eligible row whose legacy
// identifier matches a store record. A lookup failure never excludes the
// row: it falls back to a create and lets store-side constraints decide.
func (r *Reconciler) ReconcileExisting(ctx context.Context, rows []migration.ResolvedRow) {
	for i := range rows {
		if rows[i].Duplicate {
			continue
		}
		legacyID := strings.TrimSpace(rows[i].Field(migration.FieldLegacyID))
		if legacyID == "" {
			continue
		}
		existingID, err := r.store.FindByLegacyID(ctx, legacyID)
		if err != nil {
			if r.log != nil {
				r.log.WithError(err).WithField("legacy_id", legacyID).
					Warn("legacy identifier lookup failed, treating row as create")
			}
			continue
		}
		rows[i].ExistingID = existingID
	}
}
