package components

import (
	"voicedesk/internal/infra/db"
	"voicedesk/internal/infra/readstore"
	"voicedesk/internal/infra/uow"
	"voicedesk/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		// UnitOfWork
		uow.NewPostgresUoW,
		// Business
		fx.Annotate(
			readstore.NewBusinessReadStore,
			fx.As(new(queries.BusinessStore)),
		),
		// Booking
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingLoadStore)),
			fx.As(new(queries.BookingSearchStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
