package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title beaconcheck API
// @version 0.1
// @description Upload a CSV of pages and expected analytics parameters; every page is visited in a shared browser session and each row is marked Pass or Fail.
// @contact.name beaconcheck maintainers
// @contact.url https://github.com/raysh454/beaconcheck
// @BasePath /
