package store

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/safar/go-inventory-sales/internal/database"
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9-]{3,40}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("sku", func(fl validator.FieldLevel) bool {
		return skuPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register sku validation: %v", err))
	}

	return v
}

type ProductInput struct {
	Name          string `json:"name" validate:"required,max=120"`
	SKU           string `json:"sku" validate:"required,sku"`
	Price         int64  `json:"price" validate:"gte=0,lte=2147483647"`
	StockQuantity int    `json:"stock_quantity" validate:"gte=0,lte=2147483647"`
}

// Normalize trims the input and uppercases the SKU before validation.
func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
}

func (in *ProductInput) Validate() error {
	in.Normalize()
	return toValidationError(validate.Struct(in))
}

type CustomerInput struct {
	Name       string  `json:"name" validate:"required,max=120"`
	NationalID string  `json:"national_id" validate:"required,max=12"`
	Email      *string `json:"email" validate:"omitempty,email,max=254"`
}

func (in *CustomerInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.NationalID = strings.ToUpper(strings.TrimSpace(in.NationalID))
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			in.Email = nil
		} else {
			in.Email = &email
		}
	}
}

func (in *CustomerInput) Validate() error {
	in.Normalize()
	return toValidationError(validate.Struct(in))
}

// LineItemRow is one submitted line of a sale. A row with no product, no
// quantity and no price is blank and is dropped, as is a row marked Delete.
// A nil UnitPrice snapshots the product's current price.
type LineItemRow struct {
	ProductID int64  `json:"product_id" validate:"gt=0"`
	Quantity  int    `json:"quantity" validate:"gt=0,lte=2147483647"`
	UnitPrice *int64 `json:"unit_price" validate:"omitempty,gte=0,lte=2147483647"`
	Delete    bool   `json:"delete"`
}

func (r LineItemRow) blank() bool {
	return r.ProductID == 0 && r.Quantity == 0 && r.UnitPrice == nil
}

// prepareLineItems filters out discarded rows and validates the rest. Any
// invalid row, or an empty result, rejects the whole batch.
func prepareLineItems(rows []LineItemRow) ([]LineItemRow, error) {
	var kept []LineItemRow
	var rejected []database.RowError

	for i, row := range rows {
		if row.Delete || row.blank() {
			continue
		}

		if err := validate.Struct(row); err != nil {
			var verr *database.ValidationError
			if !errors.As(toValidationError(err), &verr) {
				return nil, fmt.Errorf("validate line item %d: %w", i, err)
			}
			rejected = append(rejected, database.RowError{Row: i, Fields: verr.Fields})
			continue
		}

		kept = append(kept, row)
	}

	if len(rejected) > 0 {
		return nil, &database.LineItemsError{Rows: rejected}
	}
	if len(kept) == 0 {
		return nil, &database.LineItemsError{Reason: "sale has no line items"}
	}

	return kept, nil
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]database.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, database.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}

	return &database.ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must not be less than " + fe.Param()
	case "lte":
		return "must not be greater than " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "sku":
		return "must be 3-40 uppercase letters, digits or hyphens"
	default:
		return "is invalid"
	}
}
