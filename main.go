package main

import (
	"github.com/sweatcircle/sweatcircle/config"
	"github.com/sweatcircle/sweatcircle/models"
	"github.com/sweatcircle/sweatcircle/routes"
	"github.com/sweatcircle/sweatcircle/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Group{}, &models.GroupMember{}, &models.CheckIn{})

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
