package studio

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context, limit int) ([]*Project, error)
	DeleteProject(ctx context.Context, id string) error
	CountProjects(ctx context.Context) (int, error)

	CreateLibraryItem(ctx context.Context, item *LibraryItem) error
	GetLibraryItem(ctx context.Context, id string) (*LibraryItem, error)
	ListLibraryItems(ctx context.Context, typeFilter, query string) ([]*LibraryItem, error)
	DeleteLibraryItem(ctx context.Context, id string) error

	SetCredential(ctx context.Context, cred *Credential) error
	GetCredential(ctx context.Context, provider string) (*Credential, error)
	ListCredentials(ctx context.Context) ([]*Credential, error)
	DeleteCredential(ctx context.Context, provider string) error

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int, message string) error
	SetJobProject(ctx context.Context, id, projectID string) error

	CreateExport(ctx context.Context, export *Export) error
	GetExport(ctx context.Context, id string) (*Export, error)
	ListExportsByProject(ctx context.Context, projectID string) ([]*Export, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, title, output_format, quality_score, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Title, string(p.OutputFormat), p.QualityScore, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return err
	}

	for _, s := range p.Scenes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scenes (project_id, idx, description, narration, search_term,
				estimated_duration_s, visual_kind, visual_url, narration_audio_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, s.Index, s.Description, s.Narration, s.SearchTerm,
			s.EstimatedDuration, string(s.Visual.Kind), nullString(s.Visual.URL),
			nullString(s.NarrationAudioURL))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, output_format, quality_score, created_at
		FROM projects WHERE id = ?
	`, id)

	var p Project
	var format, createdAt string
	err := row.Scan(&p.ID, &p.Title, &format, &p.QualityScore, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.OutputFormat = OutputFormat(format)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	scenes, err := r.loadScenes(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Scenes = scenes
	return &p, nil
}

func (r *SQLiteRepository) loadScenes(ctx context.Context, projectID string) ([]Scene, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT idx, description, narration, search_term, estimated_duration_s,
			visual_kind, visual_url, narration_audio_url
		FROM scenes WHERE project_id = ? ORDER BY idx
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenes []Scene
	for rows.Next() {
		var s Scene
		var kind string
		var visualURL, audioURL sql.NullString
		if err := rows.Scan(&s.Index, &s.Description, &s.Narration, &s.SearchTerm,
			&s.EstimatedDuration, &kind, &visualURL, &audioURL); err != nil {
			return nil, err
		}
		s.Visual = Visual{Kind: VisualKind(kind), URL: visualURL.String}
		s.NarrationAudioURL = audioURL.String
		scenes = append(scenes, s)
	}
	return scenes, rows.Err()
}

func (r *SQLiteRepository) ListProjects(ctx context.Context, limit int) ([]*Project, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, output_format, quality_score, created_at
		FROM projects ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var format, createdAt string
		if err := rows.Scan(&p.ID, &p.Title, &format, &p.QualityScore, &createdAt); err != nil {
			return nil, err
		}
		p.OutputFormat = OutputFormat(format)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range projects {
		scenes, err := r.loadScenes(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Scenes = scenes
	}
	return projects, nil
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CountProjects(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) CreateLibraryItem(ctx context.Context, item *LibraryItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO library_items (id, type, url, title, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.ID, item.Type, item.URL, item.Title, nullString(item.Meta),
		item.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetLibraryItem(ctx context.Context, id string) (*LibraryItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, url, title, meta, created_at FROM library_items WHERE id = ?
	`, id)

	var item LibraryItem
	var meta sql.NullString
	var createdAt string
	err := row.Scan(&item.ID, &item.Type, &item.URL, &item.Title, &meta, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item.Meta = meta.String
	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &item, nil
}

func (r *SQLiteRepository) ListLibraryItems(ctx context.Context, typeFilter, query string) ([]*LibraryItem, error) {
	q := `SELECT id, type, url, title, meta, created_at FROM library_items`
	var args []any
	var where []string

	if typeFilter != "" && typeFilter != "all" {
		where = append(where, "type = ?")
		args = append(args, typeFilter)
	}
	if query != "" {
		where = append(where, "(title LIKE ? OR type LIKE ? OR meta LIKE ?)")
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern, pattern)
	}
	for i, clause := range where {
		if i == 0 {
			q += " WHERE " + clause
		} else {
			q += " AND " + clause
		}
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LibraryItem
	for rows.Next() {
		var item LibraryItem
		var meta sql.NullString
		var createdAt string
		if err := rows.Scan(&item.ID, &item.Type, &item.URL, &item.Title, &meta, &createdAt); err != nil {
			return nil, err
		}
		item.Meta = meta.String
		item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) DeleteLibraryItem(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM library_items WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) SetCredential(ctx context.Context, c *Credential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (provider, api_key, connected, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			api_key = excluded.api_key,
			connected = excluded.connected,
			updated_at = excluded.updated_at
	`, c.Provider, c.APIKey, boolToInt(c.Connected), c.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetCredential(ctx context.Context, provider string) (*Credential, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT provider, api_key, connected, updated_at FROM credentials WHERE provider = ?
	`, provider)

	var c Credential
	var connected int
	var updatedAt string
	err := row.Scan(&c.Provider, &c.APIKey, &connected, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Connected = connected == 1
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

func (r *SQLiteRepository) ListCredentials(ctx context.Context) ([]*Credential, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT provider, api_key, connected, updated_at FROM credentials ORDER BY provider
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []*Credential
	for rows.Next() {
		var c Credential
		var connected int
		var updatedAt string
		if err := rows.Scan(&c.Provider, &c.APIKey, &connected, &updatedAt); err != nil {
			return nil, err
		}
		c.Connected = connected == 1
		c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		creds = append(creds, &c)
	}
	return creds, rows.Err()
}

func (r *SQLiteRepository) DeleteCredential(ctx context.Context, provider string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE provider = ?", provider)
	return err
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, status, project_id, progress, payload, message, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.ProjectID), j.Progress,
		nullString(j.Payload), nullString(j.Message), nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, status, project_id, progress, payload, message, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return scanJob(row)
}

func scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var projectID, payload, message, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Type, &j.Status, &projectID, &j.Progress, &payload, &message, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.ProjectID = projectID.String
	j.Payload = payload.String
	j.Message = message.String
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, project_id, progress, payload, message, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, project_id, progress, payload, message, error, created_at, updated_at
		FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var projectID, payload, message, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &projectID, &j.Progress, &payload, &message, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.ProjectID = projectID.String
		j.Payload = payload.String
		j.Message = message.String
		j.Error = errMsg.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, message = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, nullString(message), id)
	return err
}

func (r *SQLiteRepository) SetJobProject(ctx context.Context, id, projectID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET project_id = ?, updated_at = datetime('now') WHERE id = ?
	`, projectID, id)
	return err
}

func (r *SQLiteRepository) CreateExport(ctx context.Context, e *Export) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exports (id, project_id, path, mime_type, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.ProjectID, e.Path, e.MimeType, e.SizeBytes, e.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (*Export, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, path, mime_type, size_bytes, created_at FROM exports WHERE id = ?
	`, id)

	var e Export
	var createdAt string
	err := row.Scan(&e.ID, &e.ProjectID, &e.Path, &e.MimeType, &e.SizeBytes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

func (r *SQLiteRepository) ListExportsByProject(ctx context.Context, projectID string) ([]*Export, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, path, mime_type, size_bytes, created_at
		FROM exports WHERE project_id = ? ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*Export
	for rows.Next() {
		var e Export
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Path, &e.MimeType, &e.SizeBytes, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		exports = append(exports, &e)
	}
	return exports, rows.Err()
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
