package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	domainErrors "github.com/polkiloo/dispatchboard/internal/domain/errors"
	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/repository"
	"github.com/polkiloo/dispatchboard/internal/pkg/validation"
)

// CustomerUseCase manages the customer directory used to prefill orders.
type CustomerUseCase struct {
	customers repository.CustomerRepository
	intN      func(n int) int
}

// NewCustomerUseCase constructs CustomerUseCase.
func NewCustomerUseCase(customers repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{customers: customers, intN: rand.IntN}
}

// Create stores a customer for the current user, generating a code when none is given.
func (u *CustomerUseCase) Create(ctx context.Context, c model.Customer) (*model.Customer, error) {
	user, ok := CurrentUser(ctx)
	if !ok {
		return nil, domainErrors.ErrUnauthenticated
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Code = strings.TrimSpace(c.Code)
	if err := validation.Struct(c); err != nil {
		return nil, err
	}
	if c.Code == "" {
		c.Code = u.GenerateCode(c.Name)
	}
	c.CreatedBy = user
	return u.customers.Create(ctx, c)
}

// Update applies patch to a stored customer.
func (u *CustomerUseCase) Update(ctx context.Context, id string, patch model.CustomerPatch) (*model.Customer, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domainErrors.NewValidation("name", "is required")
		}
		patch.Name = &name
	}
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}
	return u.customers.Update(ctx, id, patch)
}

func (u *CustomerUseCase) List(ctx context.Context) ([]model.Customer, error) {
	return u.customers.List(ctx)
}

// Search filters customers by name, code, phone or email, ignoring case.
func (u *CustomerUseCase) Search(ctx context.Context, query string) ([]model.Customer, error) {
	all, err := u.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}
	var out []model.Customer
	for _, c := range all {
		for _, v := range []string{c.Name, c.Code, c.Phone, c.Email} {
			if strings.Contains(strings.ToLower(v), q) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// GenerateCode derives a customer code such as "ACME-4821" from the name.
func (u *CustomerUseCase) GenerateCode(name string) string {
	var prefix strings.Builder
	for _, r := range strings.ToUpper(name) {
		if prefix.Len() == 4 {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			prefix.WriteRune(r)
		}
	}
	return fmt.Sprintf("%s-%d", prefix.String(), 1000+u.intN(9000))
}
