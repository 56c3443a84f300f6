package main

import (
	"context"
	"log"

	"github.com/MrSnakeDoc/bookmarker/internal/app"
)

func main() {
	a, err := app.New(context.Background())
	if err != nil {
		log.Fatalf("❌ bookmarker failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ bookmarker stopped with error: %v", err)
	}
}
