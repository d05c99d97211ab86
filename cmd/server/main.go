package main

import (
	_ "github.com/agenthub/registry/docs"
	"github.com/agenthub/registry/internal/bootstrap"
)

// @title Agent Marketplace Registry API
// @version 1.0.0
// @description Registry and discovery API for publishable agent packages

// @host registry.agenthub.example.com
// @BasePath /api/v1

// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name X-API-Key

func main() {
	bootstrap.Run()
}
