package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/basementofbooks/internal/dbx"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/bookings"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/categories"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/payments"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/products"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/users"
)

// RepositoryManager binds repositories to a DBTX, so services can use the
// same code path with the pool or with an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Categories(db dbx.DBTX) categories.Repository
	Products(db dbx.DBTX) products.Repository
	Bookings(db dbx.DBTX) bookings.Repository
	Payments(db dbx.DBTX) payments.Repository
}
