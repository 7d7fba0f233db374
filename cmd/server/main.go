package main

import (
	"context"
	"log"

	"github.com/aquawatch/aquawatch/internal/server"
	"github.com/aquawatch/aquawatch/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
