package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/contact-book-api/internal/model"
)

// ContactRepo encapsulates all queries against the `contacts` table. Every
// method except ListAll takes the requesting owner's ID and folds it into
// the WHERE clause; ownership is enforced by query predicate, not by
// post-hoc checks, so two tenants never contend on the same rows.
type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

// contactSelect joins the owner so responses can carry an owner summary
// without a second query.
const contactSelect = `SELECT c.id, c.owner_id, c.firstname, c.lastname, c.email, c.phone,
       c.birthday, c.additional_data, c.created_at, c.updated_at,
       u.username, u.email
  FROM contacts c
  JOIN users u ON u.id = c.owner_id`

func scanContactRows(rows *sql.Rows) ([]*model.Contact, error) {
	defer rows.Close()
	var out []*model.Contact
	for rows.Next() {
		c := new(model.Contact)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Firstname, &c.Lastname, &c.Email, &c.Phone,
			&c.Birthday, &c.AdditionalData, &c.CreatedAt, &c.UpdatedAt,
			&c.OwnerUsername, &c.OwnerEmail); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a contact for its owner and re-reads the row to populate
// generated fields (id, timestamps, owner summary).
func (r *ContactRepo) Create(ctx context.Context, c *model.Contact) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO contacts (owner_id, firstname, lastname, email, phone, birthday, additional_data)
		 VALUES (?,?,?,?,?,?,?)`,
		c.OwnerID, c.Firstname, c.Lastname, c.Email, c.Phone,
		c.Birthday.Format("2006-01-02"), c.AdditionalData)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByIDAndOwner(ctx, uint64(id), c.OwnerID)
	if err != nil {
		return err
	}
	*c = *created
	return nil
}

// GetByIDAndOwner fetches a contact only when it belongs to the given
// owner. A contact owned by someone else returns ErrContactNotFound, same
// as a missing one.
func (r *ContactRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx,
		contactSelect+" WHERE c.id = ? AND c.owner_id = ? LIMIT 1", id, ownerID)
	if err != nil {
		return nil, err
	}
	out, err := scanContactRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrContactNotFound
	}
	return out[0], nil
}

// ListByOwner returns the owner's contacts with limit/offset pagination.
func (r *ContactRepo) ListByOwner(ctx context.Context, ownerID uint64, limit, offset int) ([]*model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx,
		contactSelect+" WHERE c.owner_id = ? ORDER BY c.id LIMIT ? OFFSET ?",
		ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanContactRows(rows)
}

// ListAll returns contacts across all owners. It intentionally bypasses the
// owner filter and is only reachable behind the moderator/admin role gate.
func (r *ContactRepo) ListAll(ctx context.Context, limit, offset int) ([]*model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx,
		contactSelect+" ORDER BY c.id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	return scanContactRows(rows)
}

// Update rewrites the mutable fields of an owned contact. The existence and
// ownership check and the update run inside one transaction so a concurrent
// delete cannot slip between them.
func (r *ContactRepo) Update(ctx context.Context, c *model.Contact) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var id uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM contacts WHERE id = ? AND owner_id = ? LIMIT 1",
		c.ID, c.OwnerID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrContactNotFound
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE contacts
		    SET firstname=?, lastname=?, email=?, phone=?, birthday=?, additional_data=?,
		        updated_at=CURRENT_TIMESTAMP
		  WHERE id=? AND owner_id=?`,
		c.Firstname, c.Lastname, c.Email, c.Phone,
		c.Birthday.Format("2006-01-02"), c.AdditionalData, c.ID, c.OwnerID)
	if err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	updated, err := r.GetByIDAndOwner(ctx, c.ID, c.OwnerID)
	if err != nil {
		return err
	}
	*c = *updated
	return nil
}

// Delete removes an owned contact. Zero affected rows means missing or
// foreign, both reported as ErrContactNotFound.
func (r *ContactRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM contacts WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrContactNotFound
	}
	return nil
}

// Search matches the owner's contacts by case-insensitive substring on
// firstname, lastname or email. Search stays owner-scoped like every other
// read so results can never cross tenants.
func (r *ContactRepo) Search(ctx context.Context, ownerID uint64, query string) ([]*model.Contact, error) {
	like := "%" + query + "%"
	rows, err := r.DB.QueryContext(ctx,
		contactSelect+` WHERE c.owner_id = ?
		   AND (LOWER(c.firstname) LIKE LOWER(?)
		     OR LOWER(c.lastname)  LIKE LOWER(?)
		     OR LOWER(c.email)     LIKE LOWER(?))
		 ORDER BY c.id`,
		ownerID, like, like, like)
	if err != nil {
		return nil, err
	}
	return scanContactRows(rows)
}

// BirthdayWindow returns the inclusive [from, to] date range covered by the
// upcoming-birthday search: today through seven days out.
func BirthdayWindow(today time.Time) (time.Time, time.Time) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return day, day.AddDate(0, 0, 7)
}

// UpcomingBirthdays returns the owner's contacts whose birthday falls within
// the next seven days, inclusive of today.
func (r *ContactRepo) UpcomingBirthdays(ctx context.Context, ownerID uint64, today time.Time) ([]*model.Contact, error) {
	from, to := BirthdayWindow(today)
	rows, err := r.DB.QueryContext(ctx,
		contactSelect+" WHERE c.owner_id = ? AND c.birthday BETWEEN ? AND ? ORDER BY c.birthday, c.id",
		ownerID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return scanContactRows(rows)
}
