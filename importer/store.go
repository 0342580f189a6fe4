package importer

import (
	"context"
	"time"

	"github.com/mmdatafocus/imports_backend/models"
)

// Database-backed stores wired in by ForMode. They delegate straight to the
// models package; tests swap in fakes instead.

type dbCheckinStore struct{}

func (dbCheckinStore) ResolveEmployee(ctx context.Context, businessId string, attendanceId string) (int, bool, error) {
	return models.ResolveEmployeeByDeviceId(ctx, businessId, attendanceId)
}

func (dbCheckinStore) CheckinExists(ctx context.Context, businessId string, employeeId int, eventTime time.Time) (bool, error) {
	return models.CheckinExists(ctx, businessId, employeeId, eventTime)
}

func (dbCheckinStore) CreateCheckin(ctx context.Context, checkin *models.EmployeeCheckin) (int, error) {
	return models.CreateEmployeeCheckin(ctx, checkin)
}

func (dbCheckinStore) AdvanceShiftLastSync(ctx context.Context, businessId string, lastEvent time.Time) (int, error) {
	return models.AdvanceShiftLastSync(ctx, businessId, lastEvent)
}

type dbStatementStore struct{}

func (dbStatementStore) TransactionExists(ctx context.Context, businessId string, t *models.BankingTransaction) (bool, error) {
	return models.BankingTransactionExists(ctx, businessId, t)
}

func (dbStatementStore) CreateTransaction(ctx context.Context, t *models.BankingTransaction) (int, error) {
	return models.CreateBankingTransaction(ctx, t)
}

type dbInvoiceStore struct{}

func (dbInvoiceStore) ResolveCostCenter(ctx context.Context, businessId string, name string) (int, bool, error) {
	return models.ResolveActiveCostCenter(ctx, businessId, name)
}

func (dbInvoiceStore) GroupExists(ctx context.Context, businessId string, runId int, groupKey string) (bool, error) {
	return models.PurchaseInvoiceGroupExists(ctx, businessId, runId, groupKey)
}

func (dbInvoiceStore) CreateInvoice(ctx context.Context, invoice *models.PurchaseInvoice) (int, error) {
	return models.CreatePurchaseInvoice(ctx, invoice)
}
