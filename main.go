package main

import (
	"github.com/karlodelara/ojtlog/config"
	"github.com/karlodelara/ojtlog/localstore"
	"github.com/karlodelara/ojtlog/models"
	"github.com/karlodelara/ojtlog/routes"
	"github.com/karlodelara/ojtlog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.LogEntry{})

	local, err := localstore.Open(cfg.LocalStorePath, cfg.DefaultTargetHours)
	if err != nil {
		utils.Sugar.Fatalf("failed to open local store: %v", err)
	}
	defer local.Close()

	r := routes.SetupRouter(db, local)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
