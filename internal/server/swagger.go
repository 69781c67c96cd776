package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title ALERTA-LINK API
// @version 1.0
// @description URL-risk scoring and phishing classification engine.
// @BasePath /
