package main

import "taskhive/internal/app"

// @title           TaskHive API
// @version         1.0
// @description     Task marketplace: customers post tasks, taskers bid, the platform takes its fees.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	app.Run()
}
