package persistence

import (
	"context"
	"strconv"
	"strings"

	"github.com/anchala/pos/internal/domain/trade"
	"github.com/anchala/pos/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleRepository implements trade.SaleRepository and
// trade.BillNumberSequencer using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// CreateWithLines writes the sale header and all billbook lines in a single
// transaction. If any line fails the header is rolled back with it.
func (r *GormSaleRepository) CreateWithLines(ctx context.Context, sale *trade.Sale) error {
	header := models.SaleModelFromDomain(sale)
	lines := models.BillbookLineModelsFromDomain(sale)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(header).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
	return translateError(err, "", "Failed to save sale "+sale.BillNo)
}

// FindByBillNo finds a sale with its billbook lines in cart order
func (r *GormSaleRepository) FindByBillNo(ctx context.Context, billNo string) (*trade.Sale, error) {
	billNo = strings.TrimSpace(billNo)
	notFound := "Sale " + billNo + " not found"

	var header models.SaleModel
	if err := r.db.WithContext(ctx).Where("bill_no = ?", billNo).First(&header).Error; err != nil {
		return nil, translateError(err, notFound, "Failed to load sale "+billNo)
	}

	var lines []models.BillbookLineModel
	if err := r.db.WithContext(ctx).Where("bill_no = ?", billNo).Order("line_no ASC").Find(&lines).Error; err != nil {
		return nil, translateError(err, notFound, "Failed to load bill lines for "+billNo)
	}

	sale := header.ToDomain()
	sale.Lines = make([]trade.BillbookLine, len(lines))
	for i := range lines {
		sale.Lines[i] = lines[i].ToDomain()
	}
	return sale, nil
}

// FindAll lists sale headers, newest first unless the filter says
// otherwise, with the total row count
func (r *GormSaleRepository) FindAll(ctx context.Context, filter trade.SaleFilter) ([]trade.Sale, int64, error) {
	f := filter.Filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.SaleModel{})
	if c := strings.TrimSpace(filter.Customer); c != "" {
		query = query.Where("LOWER(customer) = ?", strings.ToLower(c))
	}
	if filter.OutstandingOnly {
		query = query.Where("balance > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "", "Failed to count sales")
	}

	var rows []models.SaleModel
	err := query.
		Order(saleOrder(f.OrderBy, f.OrderDir)).
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, translateError(err, "", "Failed to list sales")
	}

	sales := make([]trade.Sale, len(rows))
	for i := range rows {
		sales[i] = *rows[i].ToDomain()
	}
	return sales, total, nil
}

// FindOutstandingByCustomer lists sales with a positive balance for a
// customer, oldest first
func (r *GormSaleRepository) FindOutstandingByCustomer(ctx context.Context, customer string) ([]trade.Sale, error) {
	var rows []models.SaleModel
	err := r.db.WithContext(ctx).
		Where("LOWER(customer) = ?", strings.ToLower(strings.TrimSpace(customer))).
		Where("balance > 0").
		Order("date ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "", "Failed to list outstanding sales")
	}

	sales := make([]trade.Sale, len(rows))
	for i := range rows {
		sales[i] = *rows[i].ToDomain()
	}
	return sales, nil
}

// NextBillNo returns one more than the highest numeric bill number, or 1
// when there are no sales. Bill numbers are compared as integers, so "10"
// follows "9"; non-numeric legacy bill numbers are skipped.
//
// Two tills calling this concurrently can receive the same number. The
// primary key on sales.bill_no rejects the second commit.
func (r *GormSaleRepository) NextBillNo(ctx context.Context) (int64, error) {
	var billNos []string
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).Pluck("bill_no", &billNos).Error; err != nil {
		return 0, translateError(err, "", "Failed to read bill numbers")
	}

	var highest int64
	for _, b := range billNos {
		n, err := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// Ensure GormSaleRepository implements the trade interfaces
var (
	_ trade.SaleRepository      = (*GormSaleRepository)(nil)
	_ trade.BillNumberSequencer = (*GormSaleRepository)(nil)
)
