package repositories

import (
	"encoding/json"
	"strings"

	"github.com/mroshb/receipt_bot/internal/models"
	"github.com/mroshb/receipt_bot/internal/security"
	"github.com/mroshb/receipt_bot/pkg/errors"
	"gorm.io/gorm"
)

// InvoiceRepository persists whole invoice snapshots keyed "invoice-...".
type InvoiceRepository struct {
	db     *gorm.DB
	aesKey []byte
}

// NewInvoiceRepository returns a repository that seals payloads with aesKey.
// A nil key stores plain JSON.
func NewInvoiceRepository(db *gorm.DB, aesKey []byte) *InvoiceRepository {
	return &InvoiceRepository{db: db, aesKey: aesKey}
}

// Save upserts the snapshot stored under key
func (r *InvoiceRepository) Save(key string, ownerTgID int64, inv *models.Invoice) error {
	if !strings.HasPrefix(key, models.KeyPrefix) {
		return errors.New(errors.ErrCodeValidationFailed, "invoice key must start with "+models.KeyPrefix)
	}

	payload, err := r.seal(inv)
	if err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var snap models.InvoiceSnapshot
		result := tx.Where("invoice_key = ?", key).Limit(1).Find(&snap)
		if result.Error != nil {
			return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to look up invoice")
		}

		snap.Key = key
		snap.OwnerTgID = ownerTgID
		snap.Policy = inv.Policy
		snap.TotalAmount = inv.TotalAmount
		snap.ItemCount = len(inv.FilledItems())
		snap.Payload = payload

		if err := tx.Save(&snap).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save invoice")
		}
		return nil
	})
}

// List returns every stored key in the order it was first saved
func (r *InvoiceRepository) List() ([]string, error) {
	return r.keys(r.db)
}

// ListByOwner returns the keys saved by one operator
func (r *InvoiceRepository) ListByOwner(ownerTgID int64) ([]string, error) {
	return r.keys(r.db.Where("owner_tg_id = ?", ownerTgID))
}

func (r *InvoiceRepository) keys(q *gorm.DB) ([]string, error) {
	var keys []string
	result := q.Model(&models.InvoiceSnapshot{}).
		Where("invoice_key LIKE ?", models.KeyPrefix+"%").
		Order("created_at ASC, id ASC").
		Pluck("invoice_key", &keys)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to list invoices")
	}
	return keys, nil
}

// Summaries returns snapshot metadata, newest first, without payloads.
// ownerTgID 0 lists every operator's invoices.
func (r *InvoiceRepository) Summaries(ownerTgID int64, limit int) ([]models.InvoiceSnapshot, error) {
	q := r.db.Model(&models.InvoiceSnapshot{}).
		Select("id", "invoice_key", "owner_tg_id", "policy", "total_amount", "item_count", "created_at", "updated_at").
		Order("updated_at DESC, id DESC")
	if ownerTgID != 0 {
		q = q.Where("owner_tg_id = ?", ownerTgID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var snaps []models.InvoiceSnapshot
	if err := q.Find(&snaps).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list invoices")
	}
	return snaps, nil
}

// Load returns the invoice stored under key, or nil when there is none
func (r *InvoiceRepository) Load(key string) (*models.Invoice, error) {
	var snap models.InvoiceSnapshot
	result := r.db.Where("invoice_key = ?", key).First(&snap)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to load invoice")
	}

	return r.open(&snap)
}

// LoadLatest returns the most recently saved invoice and its key. ownerTgID
// 0 considers every operator.
func (r *InvoiceRepository) LoadLatest(ownerTgID int64) (string, *models.Invoice, error) {
	q := r.db.Order("updated_at DESC, id DESC")
	if ownerTgID != 0 {
		q = q.Where("owner_tg_id = ?", ownerTgID)
	}

	var snap models.InvoiceSnapshot
	result := q.First(&snap)
	if result.Error == gorm.ErrRecordNotFound {
		return "", nil, nil
	}
	if result.Error != nil {
		return "", nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to load invoice")
	}

	inv, err := r.open(&snap)
	if err != nil {
		return "", nil, err
	}
	return snap.Key, inv, nil
}

// OwnerOf returns the operator who last saved key, or 0 when it is missing
func (r *InvoiceRepository) OwnerOf(key string) (int64, error) {
	var owners []int64
	result := r.db.Model(&models.InvoiceSnapshot{}).Where("invoice_key = ?", key).Limit(1).Pluck("owner_tg_id", &owners)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to look up invoice")
	}
	if len(owners) == 0 {
		return 0, nil
	}
	return owners[0], nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *InvoiceRepository) Delete(key string) error {
	result := r.db.Where("invoice_key = ?", key).Delete(&models.InvoiceSnapshot{})
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to delete invoice")
	}
	return nil
}

func (r *InvoiceRepository) seal(inv *models.Invoice) (string, error) {
	data, err := json.Marshal(inv)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode invoice")
	}
	if r.aesKey == nil {
		return string(data), nil
	}

	sealed, err := security.EncryptAES256(string(data), r.aesKey)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to encrypt invoice")
	}
	return sealed, nil
}

func (r *InvoiceRepository) open(snap *models.InvoiceSnapshot) (*models.Invoice, error) {
	data := snap.Payload
	if r.aesKey != nil {
		plain, err := security.DecryptAES256(data, r.aesKey)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to decrypt invoice "+snap.Key)
		}
		data = plain
	}

	var inv models.Invoice
	if err := json.Unmarshal([]byte(data), &inv); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to decode invoice "+snap.Key)
	}
	if inv.Items == nil {
		inv.Items = []models.LineItem{}
	}
	return &inv, nil
}
