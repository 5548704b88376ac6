package preset

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"quantdesk/server/pkg/quant"
)

var ErrNotFound = errors.New("preset not found")

// Preset is a named command with a saved parameter set.
type Preset struct {
	Alias     string       `json:"alias"`
	Command   string       `json:"command"`
	Params    quant.Params `json:"params"`
	CreatedAt time.Time    `json:"created_at"`
}

type Repo interface {
	Save(p *Preset) error
	Get(alias string) (*Preset, error)
	Delete(alias string) error
	List() ([]*Preset, error)
	Close() error
}

type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open presets db")
	}
	r := &SQLiteRepo{db: db}
	if err := r.init(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepo) init() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS presets(
		alias TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		params TEXT NOT NULL,
		created_at DATETIME
	);`)
	return errors.Wrap(err, "create presets table")
}

// Save inserts or replaces the preset stored under p.Alias.
func (r *SQLiteRepo) Save(p *Preset) error {
	if p.Alias == "" || p.Command == "" {
		return errors.New("invalid preset: alias and command are required")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	// stored as an array so key order survives
	params, err := json.Marshal([]quant.Param(p.Params))
	if err != nil {
		return errors.Wrap(err, "encode params")
	}
	_, err = r.db.Exec(`INSERT INTO presets(alias, command, params, created_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(alias) DO UPDATE SET
			command=excluded.command,
			params=excluded.params,
			created_at=excluded.created_at;`,
		p.Alias, p.Command, string(params), p.CreatedAt)
	return errors.Wrapf(err, "save preset %s", p.Alias)
}

func (r *SQLiteRepo) Get(alias string) (*Preset, error) {
	row := r.db.QueryRow(`SELECT alias, command, params, created_at FROM presets WHERE alias=?;`, alias)
	p, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(ErrNotFound, alias)
	}
	return p, err
}

func (r *SQLiteRepo) Delete(alias string) error {
	res, err := r.db.Exec(`DELETE FROM presets WHERE alias=?`, alias)
	if err != nil {
		return errors.Wrapf(err, "delete preset %s", alias)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrap(ErrNotFound, alias)
	}
	return nil
}

func (r *SQLiteRepo) List() ([]*Preset, error) {
	rows, err := r.db.Query(`SELECT alias, command, params, created_at FROM presets ORDER BY alias;`)
	if err != nil {
		return nil, errors.Wrap(err, "list presets")
	}
	defer rows.Close()
	var out []*Preset
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*Preset, error) {
	var p Preset
	var params string
	if err := s.Scan(&p.Alias, &p.Command, &params, &p.CreatedAt); err != nil {
		return nil, err
	}
	var kv []quant.Param
	if err := json.Unmarshal([]byte(params), &kv); err != nil {
		return nil, errors.Wrapf(err, "decode params of %s", p.Alias)
	}
	p.Params = quant.Params(kv)
	return &p, nil
}
