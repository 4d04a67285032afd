package server

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Repository struct {
	Db *sql.DB
}

func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	return db, nil
}

func NewRepository(db *sql.DB) (*Repository, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS user (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS match_result (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL,
			host TEXT NOT NULL,
			guest TEXT NOT NULL,
			winner TEXT NOT NULL,
			rounds INTEGER NOT NULL,
			finished_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Repository{Db: db}, nil
}

type User struct {
	Id       int64
	Name     string
	Password string
}

type MatchResult struct {
	MatchId    string
	Host       string
	Guest      string
	Winner     string
	Rounds     int
	FinishedAt time.Time
}

func (repo *Repository) AddUser(name, passwordHash string) (*User, error) {
	res, err := repo.Db.Exec("INSERT INTO user(name, password) VALUES(?, ?)", name, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	id, _ := res.LastInsertId()
	return &User{Id: id, Name: name, Password: passwordHash}, nil
}

func (repo *Repository) FindUserByName(name string) *User {
	row := repo.Db.QueryRow("SELECT id, name, password FROM user WHERE name = ? LIMIT 1", name)
	var user User
	if err := row.Scan(&user.Id, &user.Name, &user.Password); err != nil {
		return nil
	}
	return &user
}

func (repo *Repository) RecordMatchResult(r *MatchResult) error {
	_, err := repo.Db.Exec(
		"INSERT INTO match_result(match_id, host, guest, winner, rounds, finished_at) VALUES(?, ?, ?, ?, ?, ?)",
		r.MatchId, r.Host, r.Guest, r.Winner, r.Rounds, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("error in db execution: %w", err)
	}
	return nil
}

// MatchHistory lists a player's most recent finished matches.
func (repo *Repository) MatchHistory(name string, limit int) ([]*MatchResult, error) {
	rows, err := repo.Db.Query(
		"SELECT match_id, host, guest, winner, rounds, finished_at FROM match_result WHERE host = ? OR guest = ? ORDER BY finished_at DESC LIMIT ?",
		name, name, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	defer rows.Close()
	var out []*MatchResult
	for rows.Next() {
		var r MatchResult
		if err := rows.Scan(&r.MatchId, &r.Host, &r.Guest, &r.Winner, &r.Rounds, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("error in db execution: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
