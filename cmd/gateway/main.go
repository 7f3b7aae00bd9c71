package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"requify/internal/gateway/app"
)

const shutdownGrace = 5 * time.Second

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("gateway init failed: %v", err)
	}

	go func() {
		if err := a.Start(); err != nil {
			log.Printf("gateway server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gateway")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		log.Fatalf("gateway forced shutdown: %v", err)
	}
}
