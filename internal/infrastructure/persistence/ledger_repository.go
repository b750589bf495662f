package persistence

import (
	"context"
	"strings"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/domain/trade"
	"github.com/anchala/pos/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerRepository implements trade.LedgerRepository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// RecordReturn applies the return's adjustment and appends the return row
// in one transaction. The returned-quantity check runs after the UPDATE has
// locked the sale row.
func (r *GormLedgerRepository) RecordReturn(ctx context.Context, rec *trade.ReturnRecord, soldQty int) (*trade.Sale, error) {
	row := models.ReturnRecordModelFromDomain(rec)
	var guard func(tx *gorm.DB) error
	if soldQty > 0 {
		guard = func(tx *gorm.DB) error {
			returned, err := returnedQuantity(tx, rec.BillNo, rec.ProductCode)
			if err != nil {
				return err
			}
			if returned+rec.Qty > soldQty {
				return trade.NewReturnExceedsSoldError(rec.BillNo, rec.ProductCode)
			}
			return nil
		}
	}
	sale, err := r.appendAndAdjust(ctx, rec.BillNo, rec.Adjustment(), row, guard)
	if err != nil {
		return nil, translateError(err, "Sale "+rec.BillNo+" not found", "Failed to record return on bill "+rec.BillNo)
	}
	rec.ID = row.ID
	return sale, nil
}

// RecordBalancePayment applies the payment's adjustment and appends the
// payment row in one transaction
func (r *GormLedgerRepository) RecordBalancePayment(ctx context.Context, payment *trade.BalancePayment) (*trade.Sale, error) {
	row := models.BalancePaymentModelFromDomain(payment)
	sale, err := r.appendAndAdjust(ctx, payment.BillNo, payment.Adjustment(), row, nil)
	if err != nil {
		return nil, translateError(err, "Sale "+payment.BillNo+" not found", "Failed to record payment on bill "+payment.BillNo)
	}
	payment.ID = row.ID
	return sale, nil
}

// appendAndAdjust runs the ClampedLedgerAdjustment as a single server-side
// UPDATE, then the optional guard, then inserts the audit row. A bill that
// matches no sale or a guard error aborts the transaction so no orphan audit
// row is left behind.
func (r *GormLedgerRepository) appendAndAdjust(ctx context.Context, billNo string, adj trade.ClampedLedgerAdjustment, auditRow any, guard func(tx *gorm.DB) error) (*trade.Sale, error) {
	var updated models.SaleModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyAdjustment(tx, billNo, adj); err != nil {
			return err
		}
		if guard != nil {
			if err := guard(tx); err != nil {
				return err
			}
		}
		if err := tx.Create(auditRow).Error; err != nil {
			return err
		}
		return tx.Where("bill_no = ?", billNo).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return updated.ToDomain(), nil
}

// applyAdjustment is the SQL form of trade.ClampedLedgerAdjustment. Both
// columns are computed from the row's current values inside the UPDATE, so
// concurrent adjustments on the same bill never lose an update. The CASE is
// the portable spelling of GREATEST(balance - ?, 0).
func applyAdjustment(tx *gorm.DB, billNo string, adj trade.ClampedLedgerAdjustment) error {
	res := tx.Model(&models.SaleModel{}).
		Where("bill_no = ?", billNo).
		Updates(map[string]any{
			"paid":    gorm.Expr("paid + ?", adj.Amount),
			"balance": gorm.Expr("CASE WHEN balance - ? < 0 THEN 0 ELSE balance - ? END", adj.Amount, adj.Amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.NewNotFoundError("Sale " + billNo + " not found")
	}
	return nil
}

// FindReturns lists returns recorded against a bill, oldest first
func (r *GormLedgerRepository) FindReturns(ctx context.Context, billNo string) ([]trade.ReturnRecord, error) {
	var rows []models.ReturnRecordModel
	err := r.db.WithContext(ctx).
		Where("bill_no = ?", strings.TrimSpace(billNo)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "", "Failed to load returns")
	}
	out := make([]trade.ReturnRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FindBalancePayments lists payments recorded against a bill, oldest first
func (r *GormLedgerRepository) FindBalancePayments(ctx context.Context, billNo string) ([]trade.BalancePayment, error) {
	var rows []models.BalancePaymentModel
	err := r.db.WithContext(ctx).
		Where("bill_no = ?", strings.TrimSpace(billNo)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "", "Failed to load balance payments")
	}
	out := make([]trade.BalancePayment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// returnedQuantity sums quantities already returned for a product on a bill,
// matching product codes case- and whitespace-insensitively
func returnedQuantity(tx *gorm.DB, billNo, productCode string) (int, error) {
	var total int64
	err := tx.
		Model(&models.ReturnRecordModel{}).
		Select("COALESCE(SUM(qty), 0)").
		Where("bill_no = ?", strings.TrimSpace(billNo)).
		Where("LOWER(TRIM(product_code)) = ?", strings.ToLower(strings.TrimSpace(productCode))).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// Ensure GormLedgerRepository implements trade.LedgerRepository
var _ trade.LedgerRepository = (*GormLedgerRepository)(nil)
