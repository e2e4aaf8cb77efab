package store

import (
	"context"
	"encoding/json"
	"fmt"

	"medrisk.app/console/core/db"
	"medrisk.app/console/internal/model"
)

type historyStore struct {
	q db.Querier
}

func newHistoryStore(q db.Querier) HistoryStore {
	return &historyStore{q: q}
}

func (s *historyStore) Append(ctx context.Context, entry *model.HistoryEntry) error {
	rawInput, err := json.Marshal(entry.RawInput)
	if err != nil {
		return &model.PersistenceError{Op: "append", Err: fmt.Errorf("marshal raw input: %w", err)}
	}

	row := s.q.QueryRow(ctx, `
		INSERT INTO history_entries (id, subject_id, category, label, probability, raw_input)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		entry.ID, entry.SubjectID, entry.Category, entry.Label, entry.Probability, rawInput)

	if err := row.Scan(&entry.CreatedAt); err != nil {
		return &model.PersistenceError{Op: "append", Err: err}
	}
	return nil
}

func (s *historyStore) ListBySubject(ctx context.Context, subjectID string) (model.HistorySnapshot, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, subject_id, category, label, probability, raw_input, created_at
		FROM history_entries
		WHERE subject_id = $1
		ORDER BY created_at, id`,
		subjectID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	snapshot := model.HistorySnapshot{}
	for rows.Next() {
		var entry model.HistoryEntry
		var rawInput []byte
		if err := rows.Scan(&entry.ID, &entry.SubjectID, &entry.Category, &entry.Label,
			&entry.Probability, &rawInput, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if err := json.Unmarshal(rawInput, &entry.RawInput); err != nil {
			return nil, fmt.Errorf("unmarshal raw input for entry %d: %w", entry.ID, err)
		}
		snapshot = append(snapshot, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return snapshot, nil
}

func (s *historyStore) ListIDsBySubject(ctx context.Context, subjectID string) ([]int64, error) {
	rows, err := s.q.Query(ctx, `SELECT id FROM history_entries WHERE subject_id = $1`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list history ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan history id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history ids: %w", err)
	}
	return ids, nil
}

func (s *historyStore) DeleteByIDs(ctx context.Context, subjectID string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.q.Exec(ctx, `
		DELETE FROM history_entries
		WHERE subject_id = $1 AND id = ANY($2)`,
		subjectID, ids)
	if err != nil {
		return &model.PersistenceError{Op: "clear", Err: err}
	}
	return nil
}
