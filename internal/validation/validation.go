// Package validation checks that an invoice is complete enough to print
// or save. Raw numeric text is canonicalized before it is checked, so
// Arabic-Indic digits and separators are accepted everywhere.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/pricing"
	"github.com/mroshb/receipt_bot/pkg/errors"
	"github.com/mroshb/receipt_bot/pkg/numerals"
)

var mobilePattern = regexp.MustCompile(`^01[0125][0-9]{8}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("field"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("egmobile", func(fl validator.FieldLevel) bool {
		return IsValidMobile(fl.Field().String())
	})
	_ = v.RegisterValidation("rawnumber", func(fl validator.FieldLevel) bool {
		return numerals.IsNumber(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return isDate(fl.Field().String())
	})
	return v
}

// header and item are the canonicalized views the validator inspects.
type header struct {
	MobileNumber string `field:"mobileNumber" validate:"required,egmobile"`
	Date         string `field:"date" validate:"required,isodate"`
	CustomerName string `field:"customerName" validate:"required"`
}

type item struct {
	Description string `field:"description" validate:"required"`
	Grams       string `field:"weight.grams" validate:"required,rawnumber"`
	Milligrams  string `field:"weight.milligrams" validate:"omitempty,rawnumber"`
	Karat       string `field:"karat" validate:"required,rawnumber"`
	PricePound  string `field:"price.pound" validate:"required_if=Priced true,omitempty,rawnumber"`
	ValuePound  string `field:"value.pound" validate:"required_if=Valued true,omitempty,rawnumber"`
	TaxAmount   string `field:"tax.amount" validate:"required_if=HasTax true,omitempty,rawnumber"`
	Priced      bool
	Valued      bool
	HasTax      bool
}

// Issue is one missing or invalid field, addressed by its JSON path.
type Issue struct {
	Field  string
	Reason string
}

func (i Issue) String() string {
	return i.Field + " " + i.Reason
}

type Result struct {
	Issues []Issue
}

func (r *Result) OK() bool {
	return len(r.Issues) == 0
}

func (r *Result) add(field, reason string) {
	r.Issues = append(r.Issues, Issue{Field: field, Reason: reason})
}

// Fields returns the paths of every issue in order.
func (r *Result) Fields() []string {
	fields := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		fields[i] = issue.Field
	}
	return fields
}

func (r *Result) Error() string {
	parts := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}

// IsValidMobile reports whether s is an Egyptian mobile number once digits
// are canonicalized and separators removed.
func IsValidMobile(s string) bool {
	return mobilePattern.MatchString(numerals.Canonicalize(s))
}

// CheckHeader validates the customer block only.
func CheckHeader(inv *models.Invoice) *Result {
	res := &Result{}
	collect(res, "", header{
		MobileNumber: strings.TrimSpace(inv.MobileNumber),
		Date:         strings.TrimSpace(inv.Date),
		CustomerName: strings.TrimSpace(inv.CustomerName),
	})
	return res
}

// Check validates the whole invoice. Trailing blank rows are ignored, but
// at least one filled row is required.
func Check(inv *models.Invoice, kind pricing.Kind) *Result {
	res := CheckHeader(inv)

	filled := 0
	for i := range inv.Items {
		if inv.Items[i].IsBlank() {
			continue
		}
		filled++
		checkItem(res, fmt.Sprintf("items[%d].", i), &inv.Items[i], kind)
	}

	switch {
	case filled == 0:
		res.add("items", "needs at least one filled row")
	case len(inv.Items) > models.MaxItems:
		res.add("items", fmt.Sprintf("must have at most %d rows", models.MaxItems))
	}
	return res
}

// Validate is Check returning a VALIDATION_FAILED error when incomplete.
func Validate(inv *models.Invoice, kind pricing.Kind) error {
	res := Check(inv, kind)
	if res.OK() {
		return nil
	}
	return errors.Wrap(res, errors.ErrCodeValidationFailed, "invoice is incomplete")
}

func checkItem(res *Result, prefix string, li *models.LineItem, kind pricing.Kind) {
	collect(res, prefix, item{
		Description: strings.TrimSpace(li.Description),
		Grams:       li.Weight.Grams.Canonical(),
		Milligrams:  li.Weight.Milligrams.Canonical(),
		Karat:       li.Karat.Canonical(),
		PricePound:  li.Price.Pound.Canonical(),
		ValuePound:  li.Value.Pound.Canonical(),
		TaxAmount:   li.Tax.Amount.Canonical(),
		Priced:      kind == pricing.KindWeightPriced,
		Valued:      kind == pricing.KindPreValued,
		HasTax:      li.HasTax && kind == pricing.KindPreValued,
	})
}

func collect(res *Result, prefix string, v interface{}) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.add(strings.TrimSuffix(prefix, "."), err.Error())
		return
	}
	for _, fe := range errs {
		res.add(prefix+fe.Field(), reason(fe))
	}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "rawnumber":
		return "must be a number"
	case "egmobile":
		return "must be an 11-digit mobile number starting with 010, 011, 012 or 015"
	case "isodate":
		return "must be a date (YYYY-MM-DD)"
	}
	return "is invalid"
}

func isDate(s string) bool {
	_, err := time.Parse(models.DateLayout, numerals.ToCanonicalDigits(s))
	return err == nil
}
