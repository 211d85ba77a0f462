package repository

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prajna-app/prajna-backend/internal/model"
)

// TopicRepository reads study topics. Topics are owned by the notes feature and are read-only here.
type TopicRepository struct {
	pool *pgxpool.Pool
}

func NewTopicRepository(pool *pgxpool.Pool) *TopicRepository {
	return &TopicRepository{pool: pool}
}

// ListByIDs returns the topics whose ids are in ids, in the order of ids.
// Unknown ids are skipped.
func (r *TopicRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Topic, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, subject_id, additional_info, note, have_note, created_at
		 FROM topics WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []model.Topic
	for rows.Next() {
		var (
			t    model.Topic
			note []byte
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.SubjectID, &t.AdditionalInfo, &note, &t.HaveNote, &t.CreatedAt); err != nil {
			return nil, err
		}
		if len(note) > 0 {
			t.Note = note
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortByIDOrder(topics, ids)
	return topics, nil
}

// sortByIDOrder orders topics by the position of their id in ids.
func sortByIDOrder(topics []model.Topic, ids []string) {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, seen := pos[id]; !seen {
			pos[id] = i
		}
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return pos[topics[i].ID] < pos[topics[j].ID]
	})
}
