package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/folioworks/folio/internal/records/domain"
	"github.com/folioworks/folio/internal/records/query"
	"github.com/folioworks/folio/internal/records/store"
)

type accountsRepo struct {
	db DBTX
}

const accountColumns = `id, handle, email, credential_hash, role, created_at, updated_at, deleted_at`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account
	var deletedAt sql.NullTime
	err := row.Scan(
		&a.ID,
		&a.Handle,
		&a.Email,
		&a.CredentialHash,
		&a.Role,
		&a.CreatedAt,
		&a.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	a.DeletedAt = mapNullTimePtr(deletedAt)
	return a, nil
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (handle, email, credential_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.Handle, a.Email, a.CredentialHash, a.Role, now, now,
	)
	if err != nil {
		return domain.Account{}, mapConstraint(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Account{}, err
	}

	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	a.DeletedAt = nil
	return a, nil
}

func (r *accountsRepo) GetByID(ctx context.Context, id int64, vis domain.Visibility) (domain.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	if vis == domain.ActiveOnly {
		q += ` AND deleted_at IS NULL`
	}
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string, vis domain.Visibility) (domain.Account, error) {
	// The email column carries COLLATE NOCASE, so equality is already
	// case-insensitive here.
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	if vis == domain.ActiveOnly {
		q += ` AND deleted_at IS NULL`
	}
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) List(ctx context.Context, spec query.Spec) ([]domain.Account, int, error) {
	where, args := whereClause(spec.Kind, spec.Filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + accountColumns + ` FROM accounts` + where + orderClause(spec.Sort) + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, spec.Page.Limit, spec.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, spec.Page.Limit)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func (r *accountsRepo) Update(ctx context.Context, id int64, patch domain.AccountPatch) (domain.Account, error) {
	set := `updated_at = ?`
	args := []any{time.Now().UTC()}
	if patch.Handle != nil {
		set += `, handle = ?`
		args = append(args, *patch.Handle)
	}
	if patch.Email != nil {
		set += `, email = ?`
		args = append(args, *patch.Email)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Account{}, mapConstraint(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Account{}, err
	}
	if affected == 0 {
		return domain.Account{}, store.ErrNotFound
	}
	return r.GetByID(ctx, id, domain.IncludeDeleted)
}

func (r *accountsRepo) UpdateRole(ctx context.Context, id int64, role domain.Role) (domain.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET role = ?, updated_at = ? WHERE id = ?`,
		role, time.Now().UTC(), id,
	)
	if err != nil {
		return domain.Account{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Account{}, err
	}
	if affected == 0 {
		return domain.Account{}, store.ErrNotFound
	}
	return r.GetByID(ctx, id, domain.IncludeDeleted)
}

func (r *accountsRepo) SoftDelete(ctx context.Context, id int64) error {
	// Unconditional: an already-deleted account just gets its stamp refreshed.
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET deleted_at = ?, updated_at = ? WHERE id = ?`,
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

func (r *accountsRepo) Restore(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL`,
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
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return mapNotFound(err)
	}
	return store.ErrNotDeleted
}

func (r *accountsRepo) Purge(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
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

func (r *accountsRepo) BatchSoftDelete(ctx context.Context, ids []int64, scope *query.Filter) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	args := []any{now, now}
	for _, id := range ids {
		args = append(args, id)
	}
	q := `UPDATE accounts SET deleted_at = ?, updated_at = ? WHERE id IN (` + placeholders(len(ids)) + `)`

	if scope != nil {
		where, scopeArgs := whereClause(query.AccountKind, *scope)
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

func (r *accountsRepo) Count(ctx context.Context, filter query.Filter) (int, error) {
	where, args := whereClause(query.AccountKind, filter)
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *accountsRepo) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM accounts GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Role]int)
	for rows.Next() {
		var role domain.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

func (r *accountsRepo) CountValue(ctx context.Context, field, value string, excludeID int64) (int, error) {
	if !query.AccountKind.UniqueField(field) {
		return 0, store.ErrNotFound
	}

	// No deleted_at clause: soft-deleted accounts still occupy unique values.
	// Case-insensitivity for email comes from the column's NOCASE collation.
	q := `SELECT COUNT(*) FROM accounts WHERE ` + field + ` = ?`
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

func (r *accountsRepo) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE deleted_at IS NOT NULL AND deleted_at < ?`, cutoff.UTC(),
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
