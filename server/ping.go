package server

import (
	"context"
	"net/http"
)

// This endpoint should return a 200 to only denote the availability of this
// service instance. Errors at the level of the fronting gateway return their
// own status codes, so a bare success here is what health checks key on.
func (h AppServer) ping(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	return nil
}
