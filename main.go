package main

import (
	"github.com/cppla/forumlite/config"
	"github.com/cppla/forumlite/models"
	"github.com/cppla/forumlite/routes"
	"github.com/cppla/forumlite/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db, err := config.InitDatabase(cfg, models.All()...)
	if err != nil {
		utils.Sugar.Fatalf("database init failed: %v", err)
	}

	rc, err := utils.InitRedis(cfg)
	if err != nil {
		utils.Sugar.Warnw("redis unavailable, using in-process rate limits without post cache", "error", err)
	}
	store := utils.NewRateLimitStore(rc)

	r := routes.SetupRouter(db, cfg, store)

	cleanup := func() {
		_ = store.Close()
		if rc != nil {
			_ = rc.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, cleanup); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
