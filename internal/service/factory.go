package service

import (
	"medrisk.app/console/internal/predictor"
	"medrisk.app/console/internal/queue"
	"medrisk.app/console/internal/store"
)

type Services struct {
	stores    *store.Stores
	predictor predictor.Client
	producer  queue.Producer
}

func NewServices(stores *store.Stores, p predictor.Client, producer queue.Producer) *Services {
	return &Services{
		stores:    stores,
		predictor: p,
		producer:  producer,
	}
}

func (s *Services) Submissions() SubmissionService {
	return NewSubmissionService(s.predictor, s.stores.History(), s.producer)
}

func (s *Services) History() HistoryService {
	return NewHistoryService(s.stores.History(), s.producer)
}
