// Package memory provides in-memory implementations of the store interfaces.
package memory

import "github.com/wolfeidau/sheetclock/internal/store"

// NewStores returns an ephemeral set of stores.
func NewStores() *store.Stores {
	return &store.Stores{
		Employees: NewEmployeeStore(),
		Documents: NewDocumentStore(),
		History:   NewHistoryStore(),
		Sessions:  NewSessionStore(),
	}
}
