package public

import "github.com/schoolsuite/resultpin/internal/provider"

// Handler public result-check API entry point. Everything here is
// reachable without authentication.
type Handler struct {
	*provider.Container
}

// New creates the public handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
