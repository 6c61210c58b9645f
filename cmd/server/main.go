package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/infrastructure/persistence"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/presentation/controllers"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/services"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/configuration"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/eventbus"
)

func main() {
	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		logger.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	references := persistence.NewPgReferenceRepository(pool)
	store := persistence.NewPgContactStore(pool)
	scheduler := persistence.NewPgAppointmentRepository(pool)

	fieldMapping := services.NewFieldMappingService(migration.ContactFields())
	valueMapping := services.NewValueMappingService(references, references, references, references)
	reconciler := services.NewReconciler(store, logger)
	orchestrator := services.NewMigrationService(store, scheduler, logger, eventbus.NewEventPublisher(logger))
	export := services.NewExportService(migration.ContactFields())
	session := services.NewSessionService(fieldMapping, valueMapping, reconciler, orchestrator, export)

	router := mux.NewRouter()
	controllers.NewMigrationController(session, logger, conf.Migration.MaxUploadSize).Register(router)

	server := &http.Server{
		Addr:              conf.SocketAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Infof("listening on %s", conf.SocketAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server stopped: %v", err)
	}
}
