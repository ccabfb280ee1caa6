package customers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ezmobilemechanic/crm/internal/domain/listing"
)

// Domain-level errors for customers.
var (
	ErrNotImplemented = errors.New("customers repository: not implemented")
	ErrNotFound       = errors.New("customer not found")
	ErrEmailExists    = errors.New("email already exists")
)

// Customer represents a CRM customer.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter narrows customer listings. Empty fields match everything.
// CreatedFrom and CreatedTo are inclusive bounds; zero values leave that side open.
type ListFilter struct {
	NameContains  string
	EmailContains string
	PhonePrefix   string
	CreatedFrom   time.Time
	CreatedTo     time.Time
	Sort          listing.Order
}

// SortFields are the fields a customer listing can be ordered by.
var SortFields = []string{"name", "email", "created_at", "updated_at"}

var defaultSort = listing.Order{Field: "created_at", Desc: true}

// Ordering returns the requested sort, or newest first when none is set.
func (f ListFilter) Ordering() listing.Order {
	return listing.Resolve(f.Sort, defaultSort, SortFields...)
}

// Matches reports whether c satisfies the filter using case-insensitive substring matching.
func (f ListFilter) Matches(c Customer) bool {
	if f.NameContains != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if f.EmailContains != "" && !strings.Contains(strings.ToLower(c.Email), strings.ToLower(f.EmailContains)) {
		return false
	}
	if f.PhonePrefix != "" && !strings.HasPrefix(c.Phone, f.PhonePrefix) {
		return false
	}
	if !f.CreatedFrom.IsZero() && c.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && c.CreatedAt.After(f.CreatedTo) {
		return false
	}
	return true
}

// Compare orders a and b by o, breaking ties by ID.
func Compare(a, b Customer, o listing.Order) int {
	var c int
	switch o.Field {
	case "name":
		c = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "email":
		c = strings.Compare(a.Email, b.Email)
	case "updated_at":
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	return o.Apply(c)
}

// Repository abstracts persistence for customers.
type Repository interface {
	FindByID(ctx context.Context, id string) (Customer, error)
	FindByEmail(ctx context.Context, email string) (Customer, error)
	Save(ctx context.Context, customer Customer) (Customer, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]Customer, error)
	Count(ctx context.Context) (int, error)
	// DeleteInactive removes customers without any order on or after cutoff,
	// together with their orders, and returns how many customers were removed.
	DeleteInactive(ctx context.Context, cutoff time.Time) (int, error)
}

// NullRepository stub implementation returning ErrNotImplemented.
type NullRepository struct{}

func (NullRepository) FindByID(context.Context, string) (Customer, error) {
	return Customer{}, ErrNotImplemented
}

func (NullRepository) FindByEmail(context.Context, string) (Customer, error) {
	return Customer{}, ErrNotImplemented
}

func (NullRepository) Save(context.Context, Customer) (Customer, error) {
	return Customer{}, ErrNotImplemented
}

func (NullRepository) List(context.Context, ListFilter, int, int) ([]Customer, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) Count(context.Context) (int, error) {
	return 0, ErrNotImplemented
}

func (NullRepository) DeleteInactive(context.Context, time.Time) (int, error) {
	return 0, ErrNotImplemented
}

// Service exposes business operations over customers.
type Service interface {
	Get(ctx context.Context, id string) (Customer, error)
	Create(ctx context.Context, input CreateInput) (Customer, error)
	BulkCreate(ctx context.Context, inputs []CreateInput) (BulkResult, error)
	Update(ctx context.Context, id string, input UpdateInput) (Customer, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]Customer, error)
	Count(ctx context.Context) (int, error)
	DeleteInactive(ctx context.Context, cutoff time.Time) (int, error)
}

// CreateInput defines data required to create a customer.
type CreateInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// UpdateInput defines data for updating a customer.
type UpdateInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// BulkResult reports the outcome of a partially successful bulk create.
type BulkResult struct {
	Customers []Customer `json:"customers"`
	Errors    []string   `json:"errors"`
}

// ValidationError describes invalid customer input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var phonePattern = regexp.MustCompile(`^(\+\d{10,15}|\d{3}-\d{3}-\d{4})$`)

const phoneFormatMessage = "phone number must be in format: +1234567890 or 123-456-7890"

// ValidPhone reports whether phone is empty or in an accepted format.
func ValidPhone(phone string) bool {
	return phone == "" || phonePattern.MatchString(phone)
}

// NewService builds a customer service with the given repository.
func NewService(repo Repository) Service {
	return &service{repo: repo, validate: validator.New()}
}

type service struct {
	repo     Repository
	validate *validator.Validate
}

func (s *service) Get(ctx context.Context, id string) (Customer, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, input CreateInput) (Customer, error) {
	input = normalize(input)
	if err := s.check(input); err != nil {
		return Customer{}, err
	}
	if err := s.ensureEmailFree(ctx, input.Email, ""); err != nil {
		return Customer{}, err
	}

	return s.repo.Save(ctx, Customer{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	})
}

func (s *service) BulkCreate(ctx context.Context, inputs []CreateInput) (BulkResult, error) {
	result := BulkResult{Customers: []Customer{}, Errors: []string{}}
	seen := make(map[string]struct{}, len(inputs))

	for idx, raw := range inputs {
		row := idx + 1
		input := normalize(raw)

		if _, dup := seen[input.Email]; dup && input.Email != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Email '%s' is duplicated in this request", row, input.Email))
			continue
		}

		customer, err := s.Create(ctx, input)
		if err != nil {
			var verr *ValidationError
			switch {
			case errors.Is(err, ErrEmailExists):
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Email '%s' already exists", row, input.Email))
			case errors.As(err, &verr):
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", row, verr.Error()))
			default:
				return result, err
			}
			continue
		}

		seen[input.Email] = struct{}{}
		result.Customers = append(result.Customers, customer)
	}

	return result, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Customer{}, err
	}

	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.Email != nil {
		customer.Email = *input.Email
	}
	if input.Phone != nil {
		customer.Phone = *input.Phone
	}

	updated := normalize(CreateInput{Name: customer.Name, Email: customer.Email, Phone: customer.Phone})
	if err := s.check(updated); err != nil {
		return Customer{}, err
	}
	if err := s.ensureEmailFree(ctx, updated.Email, customer.ID); err != nil {
		return Customer{}, err
	}
	customer.Name, customer.Email, customer.Phone = updated.Name, updated.Email, updated.Phone

	return s.repo.Save(ctx, customer)
}

func (s *service) List(ctx context.Context, filter ListFilter, offset, limit int) ([]Customer, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *service) DeleteInactive(ctx context.Context, cutoff time.Time) (int, error) {
	return s.repo.DeleteInactive(ctx, cutoff)
}

func (s *service) check(input CreateInput) error {
	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{Field: strings.ToLower(fe.Field()), Message: "failed '" + fe.Tag() + "' validation"}
		}
		return err
	}
	if !ValidPhone(input.Phone) {
		return &ValidationError{Field: "phone", Message: phoneFormatMessage}
	}
	return nil
}

func (s *service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return ErrEmailExists
		}
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotImplemented):
		return nil
	default:
		return err
	}
}

func normalize(input CreateInput) CreateInput {
	return CreateInput{
		Name:  strings.TrimSpace(input.Name),
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
		Phone: strings.TrimSpace(input.Phone),
	}
}
