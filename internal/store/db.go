// Package store is the sqlite-backed metadata service: favorites, settings,
// media metadata and saved searches. It runs as a channel worker; the UI
// never touches the database directly.
package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"lumen/internal/debug"
)

type EventType int

const (
	FetchFavorites EventType = iota
	AddFavorite
	RemoveFavorite
	FetchSettings
	SaveSetting
	UpsertMedia
	SearchMedia
	FetchSearches
	SaveSearch
	DeleteSearch
)

// Media is one row of the media metadata table, filled in by whatever
// scanner or viewer decoded the file.
type Media struct {
	Path         string
	Kind         string // "image", "video", "audio"
	Title        string
	Description  string
	Artist       string
	AlbumArtist  string
	DurationSecs int64
	Width        int
	Height       int
	CreatedAt    time.Time
	ReleasedAt   time.Time
}

// SavedSearch is a named metadata query the user can re-run.
type SavedSearch struct {
	ID    int64
	Name  string
	Query string
	Kinds string // comma-separated subset of image,video,audio
}

type Request struct {
	Op     EventType
	Path   string
	Key    string
	Value  string
	Media  *Media
	Query  string
	Kinds  string
	Search *SavedSearch
	ID     int64
}

type Response struct {
	Op        EventType
	Favorites []string
	Settings  map[string]string
	Media     []Media
	Searches  []SavedSearch
	Err       error
}

type DB struct {
	conn         *sql.DB
	RequestChan  chan Request
	ResponseChan chan Response
}

func NewDB() *DB {
	return &DB{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
	}
}

// Open initializes the database connection and schema
func (d *DB) Open(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		return err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS favorites (
			path TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS media (
			path TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			title TEXT DEFAULT '',
			description TEXT DEFAULT '',
			artist TEXT DEFAULT '',
			album_artist TEXT DEFAULT '',
			duration_secs INTEGER DEFAULT 0,
			width INTEGER DEFAULT 0,
			height INTEGER DEFAULT 0,
			created_at DATETIME,
			released_at DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS idx_media_kind ON media(kind);`,
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			query TEXT NOT NULL,
			kinds TEXT DEFAULT ''
		);`,
	}
	for _, q := range schema {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}

	d.conn = db
	return nil
}

// Start runs the worker loop. Call it on its own goroutine; it exits when
// RequestChan is closed.
func (d *DB) Start() {
	for req := range d.RequestChan {
		switch req.Op {
		case FetchFavorites:
			d.handleFetchFavorites()
		case AddFavorite:
			d.handleAddFavorite(req.Path)
		case RemoveFavorite:
			d.handleRemoveFavorite(req.Path)
		case FetchSettings:
			d.handleFetchSettings()
		case SaveSetting:
			d.handleSaveSetting(req.Key, req.Value)
		case UpsertMedia:
			d.handleUpsertMedia(req.Media)
		case SearchMedia:
			d.handleSearchMedia(req.Query, req.Kinds)
		case FetchSearches:
			d.handleFetchSearches()
		case SaveSearch:
			d.handleSaveSearch(req.Search)
		case DeleteSearch:
			d.handleDeleteSearch(req.ID)
		}
	}
}

func (d *DB) handleFetchFavorites() {
	rows, err := d.conn.Query("SELECT path FROM favorites ORDER BY created_at ASC")
	if err != nil {
		d.ResponseChan <- Response{Op: FetchFavorites, Err: err}
		return
	}
	defer rows.Close()

	var favs []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err == nil {
			favs = append(favs, path)
		}
	}
	d.ResponseChan <- Response{Op: FetchFavorites, Favorites: favs}
}

func (d *DB) handleAddFavorite(path string) {
	_, err := d.conn.Exec("INSERT OR IGNORE INTO favorites (path) VALUES (?)", path)
	if err != nil {
		debug.Log(debug.STORE, "add favorite: %v", err)
	}
	// Always trigger a fetch after modification to sync UI
	d.handleFetchFavorites()
}

func (d *DB) handleRemoveFavorite(path string) {
	_, err := d.conn.Exec("DELETE FROM favorites WHERE path = ?", path)
	if err != nil {
		debug.Log(debug.STORE, "remove favorite: %v", err)
	}
	d.handleFetchFavorites()
}

func (d *DB) handleFetchSettings() {
	rows, err := d.conn.Query("SELECT key, value FROM settings")
	if err != nil {
		d.ResponseChan <- Response{Op: FetchSettings, Err: err}
		return
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err == nil {
			settings[key] = value
		}
	}
	d.ResponseChan <- Response{Op: FetchSettings, Settings: settings}
}

func (d *DB) handleSaveSetting(key, value string) {
	_, err := d.conn.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		debug.Log(debug.STORE, "save setting: %v", err)
	}
	d.handleFetchSettings()
}

func (d *DB) handleUpsertMedia(m *Media) {
	if m == nil {
		return
	}
	_, err := d.conn.Exec(`INSERT INTO media
		(path, kind, title, description, artist, album_artist, duration_secs, width, height, created_at, released_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
		kind=excluded.kind, title=excluded.title, description=excluded.description,
		artist=excluded.artist, album_artist=excluded.album_artist,
		duration_secs=excluded.duration_secs, width=excluded.width, height=excluded.height,
		created_at=excluded.created_at, released_at=excluded.released_at`,
		m.Path, m.Kind, m.Title, m.Description, m.Artist, m.AlbumArtist,
		m.DurationSecs, m.Width, m.Height, m.CreatedAt, m.ReleasedAt)
	if err != nil {
		debug.Log(debug.STORE, "upsert media: %v", err)
		d.ResponseChan <- Response{Op: UpsertMedia, Err: err}
		return
	}
	d.ResponseChan <- Response{Op: UpsertMedia}
}

// handleSearchMedia matches the term against path, title, description and
// artist fields, optionally restricted to a set of kinds.
func (d *DB) handleSearchMedia(term, kinds string) {
	query := `SELECT path, kind, title, description, artist, album_artist,
		duration_secs, width, height, created_at, released_at
		FROM media WHERE (path LIKE ? OR title LIKE ? OR description LIKE ? OR artist LIKE ?)`
	like := "%" + term + "%"
	args := []any{like, like, like, like}
	if kinds != "" {
		parts := strings.Split(kinds, ",")
		query += " AND kind IN (" + strings.Repeat("?,", len(parts)-1) + "?)"
		for _, p := range parts {
			args = append(args, strings.TrimSpace(p))
		}
	}
	query += " ORDER BY path"

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		d.ResponseChan <- Response{Op: SearchMedia, Err: err}
		return
	}
	defer rows.Close()

	var results []Media
	for rows.Next() {
		var m Media
		var created, released sql.NullTime
		if err := rows.Scan(&m.Path, &m.Kind, &m.Title, &m.Description, &m.Artist,
			&m.AlbumArtist, &m.DurationSecs, &m.Width, &m.Height, &created, &released); err == nil {
			m.CreatedAt = created.Time
			m.ReleasedAt = released.Time
			results = append(results, m)
		}
	}
	d.ResponseChan <- Response{Op: SearchMedia, Media: results}
}

func (d *DB) handleFetchSearches() {
	rows, err := d.conn.Query("SELECT id, name, query, kinds FROM searches ORDER BY id ASC")
	if err != nil {
		d.ResponseChan <- Response{Op: FetchSearches, Err: err}
		return
	}
	defer rows.Close()

	var searches []SavedSearch
	for rows.Next() {
		var s SavedSearch
		if err := rows.Scan(&s.ID, &s.Name, &s.Query, &s.Kinds); err == nil {
			searches = append(searches, s)
		}
	}
	d.ResponseChan <- Response{Op: FetchSearches, Searches: searches}
}

func (d *DB) handleSaveSearch(s *SavedSearch) {
	if s == nil {
		return
	}
	_, err := d.conn.Exec("INSERT INTO searches (name, query, kinds) VALUES (?, ?, ?)",
		s.Name, s.Query, s.Kinds)
	if err != nil {
		debug.Log(debug.STORE, "save search: %v", err)
	}
	d.handleFetchSearches()
}

func (d *DB) handleDeleteSearch(id int64) {
	_, err := d.conn.Exec("DELETE FROM searches WHERE id = ?", id)
	if err != nil {
		debug.Log(debug.STORE, "delete search: %v", err)
	}
	d.handleFetchSearches()
}

func (d *DB) Close() {
	if d.conn != nil {
		d.conn.Close()
	}
}
