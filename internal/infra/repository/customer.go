package repository

import (
	"context"
	"errors"
	"time"

	"voicedesk/internal/domain/customer"
	"voicedesk/internal/infra"
	"voicedesk/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CustomerRepository struct {
	db db.DBTX
}

func NewCustomerRepository(dbtx db.DBTX) *CustomerRepository {
	return &CustomerRepository{db: dbtx}
}

func (r *CustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	const q = `SELECT id, business_id, name, phone, created_at FROM customers WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, q, id))
}

func (r *CustomerRepository) FindByPhone(ctx context.Context, businessID uuid.UUID, phoneDigits string) (*customer.Customer, error) {
	const q = `SELECT id, business_id, name, phone, created_at
        FROM customers
        WHERE business_id = $1 AND regexp_replace(phone, '\D', '', 'g') = $2
        ORDER BY created_at
        LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, q, businessID, phoneDigits))
}

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	const q = `INSERT INTO customers (id, business_id, name, phone) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.Exec(ctx, q, c.ID(), c.BusinessID(), c.Name(), c.Phone()); err != nil {
		return wrapPgErr("failed to create customer", err)
	}
	return nil
}

func (r *CustomerRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	const q = `UPDATE customers SET name = $2 WHERE id = $1`
	if _, err := r.db.Exec(ctx, q, id, name); err != nil {
		return wrapPgErr("failed to update customer name", err)
	}
	return nil
}

func (r *CustomerRepository) scanOne(row pgx.Row) (*customer.Customer, error) {
	var (
		id, businessID uuid.UUID
		name, phoneNum string
		createdAt      time.Time
	)
	if err := row.Scan(&id, &businessID, &name, &phoneNum, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("customer not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find customer", err)
	}
	return customer.ReconstructCustomer(id, businessID, name, phoneNum, createdAt), nil
}
