package main

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Schoolmate-Ai/schoolmateai-backend/config"
	"github.com/Schoolmate-Ai/schoolmateai-backend/database"
	"github.com/Schoolmate-Ai/schoolmateai-backend/routes"
)

func main() {
	cfg := config.Load()

	// Fail fast when the database is unreachable.
	database.Connect(cfg)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	routes.Register(e, cfg)

	addr := ":" + cfg.AppPort
	log.Printf("server listening at %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
