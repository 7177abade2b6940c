package postgres_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "shipping/internal/adapters/out/postgres"
	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// UnitOfWorkIntegrationTestSuite exercises the unit of work, the Connection
// lifecycle and Migrate against a real PostgreSQL database.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	conn      *postgres_adapter.Connection
	factory   ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30*time.Second)),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	dialector, err := postgres_adapter.NewDialector(postgres_adapter.DriverPostgres, dsn)
	suite.Require().NoError(err)

	suite.conn = postgres_adapter.NewConnection(dialector)
	db, err := suite.conn.Open(ctx)
	suite.Require().NoError(err)

	suite.Require().NoError(postgres_adapter.Migrate(db))
	// Running the migration twice must be harmless.
	suite.Require().NoError(postgres_adapter.Migrate(db))

	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(db)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	db, err := suite.conn.DB()
	suite.Require().NoError(err)
	suite.Require().NoError(db.Exec("TRUNCATE TABLE deliveries").Error)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.conn != nil {
		suite.Require().NoError(suite.conn.Close())
	}
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestConnection_OpenIsIdempotent() {
	first, err := suite.conn.Open(context.Background())
	suite.Require().NoError(err)

	second, err := suite.conn.Open(context.Background())
	suite.Require().NoError(err)

	suite.Same(first, second)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWorkFactory_Create() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2)
	suite.NotNil(uow1.DeliveryRepository())
	suite.NotNil(uow2.DeliveryRepository())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "second Begin must be a no-op")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Rollback(ctx))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_WithoutActiveTransaction_Errors() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().Error(uow.Commit(ctx))
	suite.Require().Error(uow.Rollback(ctx))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_Commit_Persists() {
	ctx := context.Background()
	uow := suite.factory.Create()
	d := createTestDelivery("NRW-0000A001")

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.DeliveryRepository().Add(ctx, d))
	suite.Require().NoError(uow.Commit(ctx))

	got, err := suite.factory.Create().DeliveryRepository().Get(ctx, d.ID())
	suite.Require().NoError(err)
	suite.True(d.ID().IsEqual(got.ID()))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_Rollback_DiscardsChanges() {
	ctx := context.Background()
	uow := suite.factory.Create()
	d := createTestDelivery("NRW-0000A002")

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.DeliveryRepository().Add(ctx, d))

	_, err := uow.DeliveryRepository().Get(ctx, d.ID())
	suite.Require().NoError(err, "insert must be visible inside its own transaction")

	suite.Require().NoError(uow.Rollback(ctx))

	_, err = suite.factory.Create().DeliveryRepository().Get(ctx, d.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_UncommittedChangesAreIsolated() {
	ctx := context.Background()
	writer := suite.factory.Create()
	reader := suite.factory.Create()
	d := createTestDelivery("NRW-0000A003")

	suite.Require().NoError(writer.Begin(ctx))
	suite.Require().NoError(writer.DeliveryRepository().Add(ctx, d))

	_, err := reader.DeliveryRepository().Get(ctx, d.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	suite.Require().NoError(writer.Commit(ctx))

	_, err = reader.DeliveryRepository().Get(ctx, d.ID())
	suite.Require().NoError(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_StatusUpdateRolledBackWithTransaction() {
	ctx := context.Background()
	d := createTestDelivery("NRW-0000A004")
	suite.Require().NoError(suite.factory.Create().DeliveryRepository().Add(ctx, d))

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.DeliveryRepository().CompareAndSetStatus(
		ctx, d.ID(), delivery.Created, delivery.InTransit, time.Now().UTC()))
	suite.Require().NoError(uow.Rollback(ctx))

	got, err := suite.factory.Create().DeliveryRepository().Get(ctx, d.ID())
	suite.Require().NoError(err)
	suite.Equal(delivery.Created, got.Status())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_WithoutTransaction_AutoCommits() {
	ctx := context.Background()
	d := createTestDelivery("NRW-0000A005")

	suite.Require().NoError(suite.factory.Create().DeliveryRepository().Add(ctx, d))

	got, err := suite.factory.Create().DeliveryRepository().FindByProviderAndTrackingID(ctx, delivery.NRW, "NRW-0000A005")
	suite.Require().NoError(err)
	suite.True(d.ID().IsEqual(got.ID()))
}

func createTestDelivery(trackingID string) *delivery.Delivery {
	now := time.Now().UTC().Truncate(time.Microsecond)
	d, _ := delivery.NewDelivery(
		kernel.NewUUID(),
		"order_1710406800000_7",
		delivery.NRW,
		trackingID,
		"https://nrw.example.com/labels/"+trackingID+".pdf",
		now,
		now.Add(36*time.Hour),
	)
	return d
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
