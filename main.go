package main

import (
	"cermont/cmd"
	_ "cermont/docs"
)

// @title Cermont API
// @version 1.0
// @description Work order management for field service operations.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cmd.Execute()
}
