package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/catalog"
	"github.com/trezcool/bolingo/core/communication"
	"github.com/trezcool/bolingo/core/hours"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/rsvp"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/core/volunteer"
)

type (
	// DB keeps every table in memory. Its zero value is not usable, see Open.
	DB struct {
		// txMu serializes units of work (InTx), mu guards the tables.
		txMu sync.Mutex
		mu   sync.RWMutex

		users          map[string]user.User
		volunteers     map[string]volunteer.Volunteer
		opportunities  map[string]opportunity.Opportunity
		rsvps          map[string]rsvp.Rsvp
		hours          map[string]hours.Record
		catalogs       map[catalog.Kind]*catalogTable
		communications map[string]communication.Communication
	}

	catalogTable struct {
		entries          map[string]catalog.Entry
		volunteerLinks   map[link]volunteerLink
		opportunityLinks map[link]struct{}
	}

	// link pairs an owner (volunteer or opportunity) with a catalog entry.
	link struct {
		ownerID string
		entryID string
	}

	volunteerLink struct {
		proficiency string
		assignedAt  time.Time
	}
)

func Open() *DB {
	db := &DB{
		users:          make(map[string]user.User),
		volunteers:     make(map[string]volunteer.Volunteer),
		opportunities:  make(map[string]opportunity.Opportunity),
		rsvps:          make(map[string]rsvp.Rsvp),
		hours:          make(map[string]hours.Record),
		catalogs:       make(map[catalog.Kind]*catalogTable),
		communications: make(map[string]communication.Communication),
	}
	for _, kind := range []catalog.Kind{catalog.KindSkill, catalog.KindInterest} {
		db.catalogs[kind] = &catalogTable{
			entries:          make(map[string]catalog.Entry),
			volunteerLinks:   make(map[link]volunteerLink),
			opportunityLinks: make(map[link]struct{}),
		}
	}
	return db
}

var _ core.Transactor = (*DB)(nil) // interface compliance check

// InTx runs fn while holding the store-wide unit-of-work lock. exec is always nil: repositories ignore it.
// Writes made by fn are not rolled back when it fails. InTx must not be nested.
func (db *DB) InTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	return fn(nil)
}

// Flush empties every table.
func (db *DB) Flush() {
	fresh := Open()
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = fresh.users
	db.volunteers = fresh.volunteers
	db.opportunities = fresh.opportunities
	db.rsvps = fresh.rsvps
	db.hours = fresh.hours
	db.catalogs = fresh.catalogs
	db.communications = fresh.communications
}

// contains does a case-insensitive substring match of search on any of vals.
func contains(search string, vals ...string) bool {
	search = strings.ToLower(search)
	for _, v := range vals {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

// paginate returns the [offset, offset+limit) window of items. A limit < 1 returns everything from offset.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	if offset < 0 {
		offset = 0
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// sortBy stable-sorts items with cmps, the first non-zero comparison wins.
func sortBy[T any](items []T, cmps ...func(a, b T) int) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, cmp := range cmps {
			if c := cmp(items[i], items[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func cmpString(a, b string) int { return strings.Compare(a, b) }

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
