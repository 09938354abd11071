package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"lingochat/internal/domain"
)

// MessageRepo stores chat messages. The per-language translations map lives
// in a JSON column; partial updates are read-modify-write inside a
// transaction so concurrent per-language writers never drop each other's
// languages.
type MessageRepo struct{ *Repo }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{NewRepo(db)} }

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	if m.Translations == nil {
		m.Translations = map[string]string{}
	}
	blob, err := json.Marshal(m.Translations)
	if err != nil {
		return fmt.Errorf("marshal translations: %w", err)
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	q := r.SQ.Insert("messages").
		Columns("id", "text", "source_lang", "translations", "pending", "warning", "created_at", "updated_at").
		Values(m.ID, m.Text, m.SourceLang, string(blob), m.TranslationPending, m.TranslationWarning,
			now.Format(time.RFC3339), now.Format(time.RFC3339))
	sqlStr, args, _ := q.ToSql()
	_, err = r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *MessageRepo) Get(ctx context.Context, id string) (*domain.Message, error) {
	q := r.SQ.Select("id", "text", "source_lang", "translations", "pending", "warning", "created_at", "updated_at").
		From("messages").
		Where(sq.Eq{"id": id}).
		Limit(1)
	sqlStr, args, _ := q.ToSql()
	return scanMessage(r.DB.QueryRowContext(ctx, sqlStr, args...))
}

func (r *MessageRepo) SetTranslation(ctx context.Context, id, lang, text string) error {
	return WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT translations FROM messages WHERE id = ?`, id)
		var blob string
		if err := row.Scan(&blob); err != nil {
			return fmt.Errorf("load message %s: %w", id, err)
		}
		translations := map[string]string{}
		if blob != "" {
			if err := json.Unmarshal([]byte(blob), &translations); err != nil {
				return fmt.Errorf("decode translations for %s: %w", id, err)
			}
		}
		translations[lang] = text
		out, err := json.Marshal(translations)
		if err != nil {
			return fmt.Errorf("marshal translations: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE messages SET translations = ?, updated_at = ? WHERE id = ?`,
			string(out), time.Now().UTC().Format(time.RFC3339), id)
		return err
	})
}

func (r *MessageRepo) FinishTranslations(ctx context.Context, id, warning string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE messages SET pending = 0, warning = ?, updated_at = ? WHERE id = ?`,
		warning, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *MessageRepo) List(ctx context.Context, limit int) ([]*domain.Message, error) {
	q := r.SQ.Select("id", "text", "source_lang", "translations", "pending", "warning", "created_at", "updated_at").
		From("messages").
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var m domain.Message
	var blob, created, updated string
	if err := row.Scan(&m.ID, &m.Text, &m.SourceLang, &blob, &m.TranslationPending,
		&m.TranslationWarning, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m.Translations = map[string]string{}
	if blob != "" {
		if err := json.Unmarshal([]byte(blob), &m.Translations); err != nil {
			return nil, fmt.Errorf("decode translations for %s: %w", m.ID, err)
		}
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, created)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &m, nil
}
