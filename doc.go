// Package main provides the entry point for the RBAC security service.
// It initializes and runs a web server using the Fiber framework that exposes
// a REST API for managing users, roles, permissions, protected resources
// (view menus), permission-resource grants and groups. The application uses
// gorm for data persistence and issues JWT bearer tokens for API access.
package main
