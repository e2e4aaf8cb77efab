package dto

import (
	"strconv"
	"time"

	"medrisk.app/console/internal/model"
)

type HistoryEntryResponse struct {
	ID          string              `json:"id"`
	Category    string              `json:"category"`
	Label       int                 `json:"prediction"`
	Probability float64             `json:"probability_has_disease"`
	Features    model.FeatureVector `json:"features"`
	CreatedAt   time.Time           `json:"created_at"`
}

type HistoryResponse struct {
	Entries []HistoryEntryResponse `json:"entries"`
	Count   int                    `json:"count"`
}

func ToHistoryResponse(snapshot model.HistorySnapshot) *HistoryResponse {
	entries := make([]HistoryEntryResponse, 0, len(snapshot))
	for _, e := range snapshot {
		entries = append(entries, HistoryEntryResponse{
			ID:          strconv.FormatInt(e.ID, 10),
			Category:    e.Category,
			Label:       e.Label,
			Probability: e.Probability,
			Features:    e.RawInput,
			CreatedAt:   e.CreatedAt,
		})
	}
	return &HistoryResponse{Entries: entries, Count: len(entries)}
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Color    string `json:"color"`
}

type StatsResponse struct {
	Counts []CategoryCount `json:"counts"`
	Total  int             `json:"total"`
}

type ClearResponse struct {
	Deleted int `json:"deleted"`
}
