package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/usecase"
	"github.com/speare-ai/speare/pkg/utils/errutil"
)

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return goerr.Wrap(usecase.ErrBadRequest, "invalid request body", goerr.V("cause", err.Error()))
	}
	return nil
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

// handleError maps domain sentinels to HTTP status codes and writes the
// error response.
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	errutil.HandleHTTP(ctx, w, err, statusOf(err))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound), errors.Is(err, usecase.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidState),
		errors.Is(err, types.ErrStaleState),
		errors.Is(err, types.ErrDuplicatePending):
		return http.StatusConflict
	case errors.Is(err, types.ErrRetrieval), errors.Is(err, types.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
