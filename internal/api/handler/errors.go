package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/dartleague/internal/api/apierr"
	"github.com/mcoot/dartleague/internal/model"
)

// WriteError maps a service error onto its JSON error response
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates a 400 with the given message
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

func matchIDFromPath(r *http.Request) model.MatchID {
	return model.MatchID(mux.Vars(r)["id"])
}

func playerIDFromPath(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["id"])
}
