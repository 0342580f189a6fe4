package models

import "github.com/mmdatafocus/imports_backend/config"

// Migrate runs gorm auto-migration for every table this service owns.
// Call after the database connection is established.
func Migrate() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&ImportRun{},
		&RunSourceFile{},
		&Employee{},
		&Shift{},
		&BankAccount{},
		&Supplier{},
		&CostCenter{},
		&EmployeeCheckin{},
		&BankingTransaction{},
		&PurchaseInvoice{},
		&PurchaseInvoiceLine{},
	)
}
