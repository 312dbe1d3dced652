package usecase

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrTicketNotFound: the referenced ticket does not exist in the corpus
	ErrTicketNotFound = goerr.New("ticket not found")

	// ErrBadRequest: the request is structurally invalid
	ErrBadRequest = goerr.New("invalid request")
)
