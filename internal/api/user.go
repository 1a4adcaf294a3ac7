package api

import (
	"net/http"

	"github.com/you/vllmgate/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
}

// LoginHandler handles POST /api/user/login, issuing a bearer credential for
// allow-listed users.
func LoginHandler(issuer *auth.JWT) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid := TraceID(r.Context())
		var req loginRequest
		if err := decodeStrict(r, &req); err != nil || req.Username == "" {
			writeEnvelope(w, Failure(http.StatusBadRequest, "invalid params", "username is required", tid))
			return
		}
		token, err := issuer.Issue(req.Username)
		if err != nil {
			writeEnvelope(w, FromError(err, tid))
			return
		}
		writeEnvelope(w, Success(map[string]string{"token": token}, tid))
	}
}
