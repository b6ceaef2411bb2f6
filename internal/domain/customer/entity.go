package customer

import (
	"errors"
	"time"

	"voicedesk/internal/pkg/phone"

	"github.com/google/uuid"
)

var (
	ErrEmptyName  = errors.New("customer name cannot be empty")
	ErrEmptyPhone = errors.New("customer phone cannot be empty")
)

type Customer struct {
	id         uuid.UUID
	businessID uuid.UUID
	name       string
	phoneNum   string
	createdAt  time.Time
}

func NewCustomer(businessID uuid.UUID, name, phoneNum string) (*Customer, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if phone.Normalize(phoneNum) == "" {
		return nil, ErrEmptyPhone
	}
	return &Customer{
		id:         uuid.New(),
		businessID: businessID,
		name:       name,
		phoneNum:   phoneNum,
	}, nil
}

func ReconstructCustomer(id, businessID uuid.UUID, name, phoneNum string, createdAt time.Time) *Customer {
	return &Customer{
		id:         id,
		businessID: businessID,
		name:       name,
		phoneNum:   phoneNum,
		createdAt:  createdAt,
	}
}

// RefreshName updates the display name on repeat use so the record follows
// whatever the caller most recently said their name was.
func (c *Customer) RefreshName(name string) {
	if name != "" {
		c.name = name
	}
}

func (c *Customer) ID() uuid.UUID         { return c.id }
func (c *Customer) BusinessID() uuid.UUID { return c.businessID }
func (c *Customer) Name() string          { return c.name }
func (c *Customer) Phone() string         { return c.phoneNum }
func (c *Customer) CreatedAt() time.Time  { return c.createdAt }
