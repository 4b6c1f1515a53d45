package sqlstore

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/fundops/subreview/internal/store"
)

type Store struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) AddTerm(term store.TermRecord) (bool, error) {
	res, err := s.db.Exec(`INSERT INTO suspicious_terms(term, kind, source, created_at)
VALUES(?, ?, ?, ?) ON CONFLICT(term) DO NOTHING`,
		term.Term, term.Kind, term.Source, term.CreatedAt)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Store) ListTerms() ([]store.TermRecord, error) {
	rows, err := s.db.Query(`SELECT position, term, kind, source, created_at
FROM suspicious_terms ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []store.TermRecord{}
	for rows.Next() {
		var rec store.TermRecord
		if err := rows.Scan(&rec.Position, &rec.Term, &rec.Kind, &rec.Source, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) PutReview(review store.ReviewRecord) error {
	_, err := s.db.Exec(`INSERT INTO review_results(review_id, questionnaire_id, decision, body_json, created_at)
VALUES(?, ?, ?, ?, ?) ON CONFLICT(review_id) DO NOTHING`,
		review.ReviewID, review.QuestionnaireID, review.Decision, review.BodyJSON, review.CreatedAt)
	return err
}

func (s *Store) GetReview(reviewID string) (store.ReviewRecord, bool) {
	row := s.db.QueryRow(`SELECT review_id, questionnaire_id, decision, body_json, created_at
FROM review_results WHERE review_id = ?`, reviewID)

	var rec store.ReviewRecord
	err := row.Scan(&rec.ReviewID, &rec.QuestionnaireID, &rec.Decision, &rec.BodyJSON, &rec.CreatedAt)
	if err != nil {
		return store.ReviewRecord{}, false
	}
	return rec, true
}

func (s *Store) ListReviews() ([]store.ReviewRecord, error) {
	rows, err := s.db.Query(`SELECT review_id, questionnaire_id, decision, body_json, created_at
FROM review_results ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []store.ReviewRecord{}
	for rows.Next() {
		var rec store.ReviewRecord
		if err := rows.Scan(&rec.ReviewID, &rec.QuestionnaireID, &rec.Decision, &rec.BodyJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
