package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
	"github.com/folioworks/folio/internal/records/store"

	"github.com/lib/pq"
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
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO documents (title, body, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		d.Title, d.Body, d.OwnerID, now, now,
	).Scan(&d.ID)
	if err != nil {
		return domain.Document{}, mapConstraint(err)
	}

	d.CreatedAt = now
	d.UpdatedAt = now
	d.DeletedAt = nil
	return d, nil
}

func (r *documentsRepo) GetByID(ctx context.Context, id int64, vis domain.Visibility) (domain.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
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
	where, args, argn := whereClause(spec.Kind, spec.Filter, 1)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + documentColumns + ` FROM documents` + where + orderClause(spec.Sort) +
		` LIMIT $` + strconv.Itoa(argn) + ` OFFSET $` + strconv.Itoa(argn+1)
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
	set := `updated_at = $1`
	args := []any{time.Now().UTC()}
	argn := 2
	if patch.Title != nil {
		set += `, title = $` + strconv.Itoa(argn)
		args = append(args, *patch.Title)
		argn++
	}
	if patch.Body != nil {
		set += `, body = $` + strconv.Itoa(argn)
		args = append(args, *patch.Body)
		argn++
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE documents SET `+set+` WHERE id = $`+strconv.Itoa(argn), args...)
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
		`UPDATE documents SET deleted_at = $1, updated_at = $2 WHERE id = $3`,
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
		`UPDATE documents SET deleted_at = NULL, updated_at = $1 WHERE id = $2 AND deleted_at IS NOT NULL`,
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
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = $1`, id).Scan(&exists)
	if err != nil {
		return mapNotFound(err)
	}
	return store.ErrNotDeleted
}

func (r *documentsRepo) Purge(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
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
	args := []any{now, now, pq.Array(ids)}
	q := `UPDATE documents SET deleted_at = $1, updated_at = $2 WHERE id = ANY($3)`

	if scope != nil {
		where, scopeArgs, _ := whereClause(query.DocumentKind, *scope, 4)
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
	where, args, _ := whereClause(query.DocumentKind, filter, 1)
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
	q := `SELECT COUNT(*) FROM documents WHERE ` + field + ` = $1`
	args := []any{value}
	if excludeID != 0 {
		q += ` AND id != $2`
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
		`DELETE FROM documents WHERE deleted_at IS NOT NULL AND deleted_at < $1`, cutoff.UTC(),
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
