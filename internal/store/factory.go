package store

import (
	"medrisk.app/console/core/db"
)

type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) History() HistoryStore {
	return newHistoryStore(s.q)
}
