package admin

import "github.com/schoolsuite/resultpin/internal/provider"

// Handler issuer-side API entry point. Every route here runs behind
// JWT auth and is scoped to the authenticated admin's school.
type Handler struct {
	*provider.Container
}

// New creates the admin handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
