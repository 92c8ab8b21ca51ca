package main

import (
	"context"
	"log"

	"github.com/zekaiblog/mywebsite/internal/bootstrap"
	"github.com/zekaiblog/mywebsite/internal/config"
	"github.com/zekaiblog/mywebsite/internal/server"
	"github.com/zekaiblog/mywebsite/internal/tracer"
	"github.com/zekaiblog/mywebsite/pkg/database"
)

func main() {
	// 0. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Configuration
	cfg := config.Load()

	// 2. Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	if err := database.Migrate(gormDB); err != nil {
		log.Panicf("Migration failed: %v", err)
	}

	// 3. Dependencies
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	// 4. Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
