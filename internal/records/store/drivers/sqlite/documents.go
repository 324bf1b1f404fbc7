package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
	"github.com/folioworks/folio/internal/records/store"
)

type documentsRepo struct {
	db DBTX
}

const documentColumns = `id, title, body, owner_id, created_at, updated_at, deleted_at`

func scanDocument(row interface{ Scan(...any) error }) (domain.Document, error) {
	var d domain.Document
	var deletedAt sql.NullTime
	err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Body,
		&d.OwnerID,
		&d.CreatedAt,
		&d.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return domain.Document{}, err
	}
	d.DeletedAt = mapNullTimePtr(deletedAt)
	return d, nil
}

func (r *documentsRepo) Create(ctx context.Context, d domain.Document) (domain.Document, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (title, body, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		d.Title, d.Body, d.OwnerID, now, now,
	)
	if err != nil {
		return domain.Document{}, mapConstraint(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Document{}, err
	}

	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now
	d.DeletedAt = nil
	return d, nil
}

func (r *documentsRepo) GetByID(ctx context.Context, id int64, vis domain.Visibility) (domain.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`
	if vis == domain.ActiveOnly {
		q += ` AND deleted_at IS NULL`
	}
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return domain.Document{}, mapNotFound(err)
	}
	return d, nil
}

func (r *documentsRepo) List(ctx context.Context, spec query.Spec) ([]domain.Document, int, error) {
	where, args := whereClause(spec.Kind, spec.Filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + documentColumns + ` FROM documents` + where + orderClause(spec.Sort) + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, spec.Page.Limit, spec.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := make([]domain.Document, 0, spec.Page.Limit)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *documentsRepo) Update(ctx context.Context, id int64, patch domain.DocumentPatch) (domain.Document, error) {
	set := `updated_at = ?`
	args := []any{time.Now().UTC()}
	if patch.Title != nil {
		set += `, title = ?`
		args = append(args, *patch.Title)
	}
	if patch.Body != nil {
		set += `, body = ?`
		args = append(args, *patch.Body)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE documents SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Document{}, mapConstraint(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Document{}, err
	}
	if affected == 0 {
		return domain.Document{}, store.ErrNotFound
	}
	return r.GetByID(ctx, id, domain.IncludeDeleted)
}

func (r *documentsRepo) SoftDelete(ctx context.Context, id int64) error {
	// Unconditional: an already-deleted document just gets its stamp refreshed.
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET deleted_at = ?, updated_at = ? WHERE id = ?`,
		now, now, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *documentsRepo) Restore(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Nothing matched: distinguish a missing record from an active one.
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return mapNotFound(err)
	}
	return store.ErrNotDeleted
}

func (r *documentsRepo) Purge(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *documentsRepo) BatchSoftDelete(ctx context.Context, ids []int64, scope *query.Filter) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	args := []any{now, now}
	for _, id := range ids {
		args = append(args, id)
	}
	q := `UPDATE documents SET deleted_at = ?, updated_at = ? WHERE id IN (` + placeholders(len(ids)) + `)`

	if scope != nil {
		where, scopeArgs := whereClause(query.DocumentKind, *scope)
		if where != "" {
			q += ` AND` + where[len(" WHERE"):]
			args = append(args, scopeArgs...)
		}
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *documentsRepo) Count(ctx context.Context, filter query.Filter) (int, error) {
	where, args := whereClause(query.DocumentKind, filter)
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *documentsRepo) CountValue(ctx context.Context, field, value string, excludeID int64) (int, error) {
	if !query.DocumentKind.UniqueField(field) {
		return 0, store.ErrNotFound
	}

	// No deleted_at clause: soft-deleted documents still occupy unique values.
	q := `SELECT COUNT(*) FROM documents WHERE ` + field + ` = ?`
	args := []any{value}
	if excludeID != 0 {
		q += ` AND id != ?`
		args = append(args, excludeID)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *documentsRepo) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE deleted_at IS NOT NULL AND deleted_at < ?`, cutoff.UTC(),
	)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
