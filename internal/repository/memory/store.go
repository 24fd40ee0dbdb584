// Package memory provides process-local repository implementations sharing one lock.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/repository"
)

// Store holds every collection. A single RWMutex serializes writers so that
// uniqueness checks and inserts are atomic.
type Store struct {
	mu sync.RWMutex

	users       map[string]domain.User
	cases       map[string]domain.Case
	queries     map[string]domain.Query
	responses   map[string]domain.QueryResponse
	attachments map[string]attachmentRecord
	payments    map[string]domain.PaymentTransaction

	seq int64
}

type attachmentRecord struct {
	seq        int64
	attachment domain.QueryAttachment
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]domain.User),
		cases:       make(map[string]domain.Case),
		queries:     make(map[string]domain.Query),
		responses:   make(map[string]domain.QueryResponse),
		attachments: make(map[string]attachmentRecord),
		payments:    make(map[string]domain.PaymentTransaction),
	}
}

// NewRepositories wires every repository over store.
func NewRepositories(store *Store) repository.Set {
	return repository.Set{
		Users:       NewUserRepository(store),
		Cases:       NewCaseRepository(store),
		Queries:     NewQueryRepository(store),
		Responses:   NewQueryResponseRepository(store),
		Attachments: NewQueryAttachmentRepository(store),
		Payments:    NewPaymentRepository(store),
	}
}

// newestFirst orders by created_at then id, both descending.
func newestFirst(aCreated time.Time, aID string, bCreated time.Time, bID string) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return strings.Compare(aID, bID) > 0
}

func sortNewestFirst[T any](items []T, key func(*T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ac, aid := key(&items[i])
		bc, bid := key(&items[j])
		return newestFirst(ac, aid, bc, bid)
	})
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
