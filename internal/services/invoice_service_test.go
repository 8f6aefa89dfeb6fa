package services

import (
	"testing"
	"time"

	"github.com/mroshb/receipt_bot/internal/database"
	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/pricing"
	"github.com/mroshb/receipt_bot/internal/repositories"
	"github.com/mroshb/receipt_bot/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, kind pricing.Kind) *InvoiceService {
	t.Helper()

	db, err := database.Open(database.MemoryPath, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	svc := NewInvoiceService(repositories.NewInvoiceRepository(db, []byte("12345678901234567890123456789012")), kind)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// assertInvariants checks that every total matches a fresh recomputation.
func assertInvariants(t *testing.T, svc *InvoiceService, inv *models.Invoice) {
	t.Helper()
	policy := svc.PolicyOf(inv)
	for i := range inv.Items {
		assert.Equal(t, policy.RowTotal(&inv.Items[i]), inv.Items[i].Total, "row %d total", i)
	}
	assert.Equal(t, policy.InvoiceTotal(inv.Items), inv.TotalAmount)
}

func TestNewInvoice(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)

	inv, err := svc.NewInvoice("")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", inv.Date)
	assert.Equal(t, string(pricing.KindWeightPriced), inv.Policy)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].IsBlank())
	assert.NotEmpty(t, inv.Items[0].ID)
	assert.Zero(t, inv.TotalAmount)

	inv, err = svc.NewInvoice(pricing.KindPreValued)
	require.NoError(t, err)
	assert.Equal(t, string(pricing.KindPreValued), inv.Policy)

	_, err = svc.NewInvoice("mystery")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidPolicy))
}

func TestSetHeaderField(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)
	inv, err := svc.NewInvoice("")
	require.NoError(t, err)

	require.NoError(t, svc.SetHeaderField(inv, FieldMobileNumber, "٠١٠-١٢٣٤-٥٦٧٨٩٩"))
	assert.Equal(t, "٠١٠١٢٣٤٥٦٧٨", inv.MobileNumber)

	require.NoError(t, svc.SetHeaderField(inv, FieldCustomerName, "  <b>أحمد</b> علي "))
	assert.Equal(t, "أحمد علي", inv.CustomerName)

	require.NoError(t, svc.SetHeaderField(inv, FieldDate, "٢٠٢٤-٠٧-١٥"))
	assert.Equal(t, "2024-07-15", inv.Date)

	err = svc.SetHeaderField(inv, FieldDate, "15/07/2024")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	assert.Equal(t, "2024-07-15", inv.Date)

	err = svc.SetHeaderField(inv, "address", "x")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

func TestSetItemField_WeightPriced(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)
	inv, err := svc.NewInvoice("")
	require.NoError(t, err)
	id := inv.Items[0].ID

	steps := []struct {
		field string
		value string
	}{
		{FieldDescription, "خاتم"},
		{FieldGrams, "١٠"},
		{FieldMilligrams, "5000"},
		{FieldKarat, "21"},
		{FieldPricePound, "1,00"},
		{FieldPricePiaster, "505"},
	}
	for _, step := range steps {
		require.NoError(t, svc.SetItemField(inv, id, step.field, step.value), step.field)
		assertInvariants(t, svc, inv)
	}

	item := inv.Items[0]
	assert.Equal(t, models.RawNumber("10"), item.Weight.Grams)
	assert.Equal(t, models.RawNumber("500"), item.Weight.Milligrams)
	assert.Equal(t, models.RawNumber("100"), item.Price.Pound)
	assert.Equal(t, models.RawNumber("50"), item.Price.Piaster)
	assert.Equal(t, 1055.25, item.Total)
	assert.Equal(t, 1055.25, inv.TotalAmount)
}

func TestSetItemField_PreValuedTax(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)
	inv, err := svc.NewInvoice(pricing.KindPreValued)
	require.NoError(t, err)
	id := inv.Items[0].ID

	require.NoError(t, svc.SetItemField(inv, id, FieldValuePound, "1000"))
	require.NoError(t, svc.SetItemField(inv, id, FieldTaxAmount, "140"))
	assert.Equal(t, 1000.0, inv.TotalAmount, "tax only counts once enabled")

	require.NoError(t, svc.SetItemField(inv, id, FieldHasTax, "نعم"))
	require.NoError(t, svc.SetItemField(inv, id, FieldTaxNote, "ضريبة القيمة المضافة"))
	assert.Equal(t, 1140.0, inv.TotalAmount)
	assertInvariants(t, svc, inv)

	require.NoError(t, svc.SetItemField(inv, id, FieldHasTax, "no"))
	assert.Equal(t, 1000.0, inv.TotalAmount)

	err = svc.SetItemField(inv, id, FieldHasTax, "maybe")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

func TestSetItemField_Errors(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)
	inv, err := svc.NewInvoice("")
	require.NoError(t, err)

	err = svc.SetItemField(inv, "missing", FieldGrams, "1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	err = svc.SetItemField(inv, inv.Items[0].ID, "colour", "gold")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

func TestAddAndRemoveItems(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)
	inv, err := svc.NewInvoice("")
	require.NoError(t, err)

	for len(inv.Items) < models.MaxItems {
		item, err := svc.AddItem(inv)
		require.NoError(t, err)
		require.NoError(t, svc.SetItemField(inv, item.ID, FieldGrams, "1"))
		require.NoError(t, svc.SetItemField(inv, item.ID, FieldPricePound, "10"))
	}
	assert.Equal(t, 120.0, inv.TotalAmount)

	_, err = svc.AddItem(inv)
	assert.True(t, errors.HasCode(err, errors.ErrCodeLimitExceeded))
	assert.Len(t, inv.Items, models.MaxItems)

	for len(inv.Items) > 1 {
		require.NoError(t, svc.RemoveItem(inv, inv.Items[len(inv.Items)-1].ID))
		assertInvariants(t, svc, inv)
	}
	assert.Zero(t, inv.TotalAmount)

	err = svc.RemoveItem(inv, inv.Items[0].ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeLimitExceeded))
	assert.Len(t, inv.Items, 1)
}

func TestRemoveItem_UnknownID(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)
	inv, err := svc.NewInvoice("")
	require.NoError(t, err)
	_, err = svc.AddItem(inv)
	require.NoError(t, err)

	err = svc.RemoveItem(inv, "nope")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestSaveLoadDelete(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)
	inv, err := svc.NewInvoice("")
	require.NoError(t, err)
	require.NoError(t, svc.SetHeaderField(inv, FieldMobileNumber, "٠١٠١٢٣٤٥٦٧٨"))
	require.NoError(t, svc.SetItemField(inv, inv.Items[0].ID, FieldGrams, "2"))
	require.NoError(t, svc.SetItemField(inv, inv.Items[0].ID, FieldPricePound, "3500"))

	key, err := svc.Save(7, inv)
	require.NoError(t, err)
	assert.Equal(t, "invoice-01012345678", key)

	loaded, err := svc.Load(key)
	require.NoError(t, err)
	assert.Equal(t, inv, loaded)

	keys, err := svc.ListForOwner(7)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	latestKey, latest, err := svc.LoadLatest(7)
	require.NoError(t, err)
	assert.Equal(t, key, latestKey)
	assert.Equal(t, 7000.0, latest.TotalAmount)

	require.NoError(t, svc.Delete(key))
	_, err = svc.Load(key)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	_, _, err = svc.LoadLatest(7)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	all, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSave_Ownership(t *testing.T) {
	const owner, other, admin = int64(7), int64(8), int64(1)
	svc := newTestService(t, pricing.KindWeightPriced).WithSuperAdmin(admin)

	inv, err := svc.NewInvoice("")
	require.NoError(t, err)
	require.NoError(t, svc.SetHeaderField(inv, FieldMobileNumber, "01012345678"))
	require.NoError(t, svc.SetHeaderField(inv, FieldCustomerName, "أحمد"))
	key, err := svc.Save(owner, inv)
	require.NoError(t, err)

	// resaving keeps working for the owner
	_, err = svc.Save(owner, inv)
	require.NoError(t, err)

	taken := inv.Clone()
	taken.CustomerName = "منى"
	_, err = svc.Save(other, taken)
	assert.True(t, errors.HasCode(err, errors.ErrCodeForbidden))

	loaded, err := svc.Load(key)
	require.NoError(t, err)
	assert.Equal(t, "أحمد", loaded.CustomerName)

	_, err = svc.Save(admin, taken)
	require.NoError(t, err)
	got, err := svc.OwnerOf(key)
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	tests := []struct {
		name string
		tgID int64
		key  string
		want bool
	}{
		{name: "owner", tgID: owner, key: key, want: true},
		{name: "other operator", tgID: other, key: key, want: false},
		{name: "super admin", tgID: admin, key: key, want: true},
		{name: "missing", tgID: owner, key: "invoice-01099999999", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.CanAccess(tt.tgID, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	summaries, err := svc.Summaries(owner, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, key, summaries[0].Key)
	assert.Equal(t, owner, summaries[0].OwnerTgID)
}

func TestSave_TimestampKeyWithoutMobile(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)
	inv, err := svc.NewInvoice("")
	require.NoError(t, err)

	key, err := svc.Save(1, inv)
	require.NoError(t, err)
	assert.Equal(t, "invoice-1717237800000", key)
}

func TestSave_DoesNotAliasDraft(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)
	inv, err := svc.NewInvoice("")
	require.NoError(t, err)
	require.NoError(t, svc.SetHeaderField(inv, FieldMobileNumber, "01012345678"))
	require.NoError(t, svc.SetItemField(inv, inv.Items[0].ID, FieldDescription, "before"))

	key, err := svc.Save(1, inv)
	require.NoError(t, err)

	require.NoError(t, svc.SetItemField(inv, inv.Items[0].ID, FieldDescription, "after"))

	loaded, err := svc.Load(key)
	require.NoError(t, err)
	assert.Equal(t, "before", loaded.Items[0].Description)
}

func TestImport(t *testing.T) {
	svc := newTestService(t, pricing.KindWeightPriced)

	rows := []models.LineItem{
		{Description: "<i>سلسلة</i>", Weight: models.Weight{Grams: "10", Milligrams: "500"}, Karat: "21", Price: models.Money{Pound: "100", Piaster: "50"}, Total: 99999},
		{Description: "دبلة", Weight: models.Weight{Grams: "1"}, Karat: "18", Price: models.Money{Piaster: "33"}},
	}
	inv, err := svc.Import("", models.Invoice{MobileNumber: "01012345678", CustomerName: "منى", Date: "2024-05-05"}, rows)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-05", inv.Date)
	assert.Equal(t, "سلسلة", inv.Items[0].Description)
	assert.NotEmpty(t, inv.Items[1].ID)
	assert.Equal(t, 1055.25, inv.Items[0].Total)
	assert.Equal(t, 1055.58, inv.TotalAmount)
	assertInvariants(t, svc, inv)

	tooMany := make([]models.LineItem, models.MaxItems+1)
	_, err = svc.Import("", models.Invoice{}, tooMany)
	assert.True(t, errors.HasCode(err, errors.ErrCodeLimitExceeded))
}
