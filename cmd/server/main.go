package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/gophdiary/internal/server"
	"github.com/dmitrijs2005/gophdiary/internal/server/config"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
