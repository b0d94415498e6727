package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/factboard/internal/adapters/repository"
	"github.com/okian/factboard/internal/domain/ranking"
	"github.com/okian/factboard/internal/domain/scoring"
	"github.com/okian/factboard/internal/domain/submission"
	"github.com/okian/factboard/internal/domain/validate"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrMissingFile     = errors.New("no file uploaded")
	ErrUnsupportedFile = errors.New("only JSON files are allowed")
	ErrMissingTeam     = errors.New("team name is required")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrMalformedBody   = errors.New("malformed request body")
)

// Error carries the operation that failed, an optional kind and the cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap annotates err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// problem is the client-facing rendering of an error.
type problem struct {
	status  int
	code    string
	message string
}

// Order matters: the first matching kind wins.
var problems = []struct {
	kind error
	problem
}{
	{ErrPayloadTooLarge, problem{http.StatusRequestEntityTooLarge, "payload_too_large", "Uploaded file is too large"}},
	{ErrMissingFile, problem{http.StatusBadRequest, "missing_file", "No file uploaded"}},
	{ErrUnsupportedFile, problem{http.StatusBadRequest, "unsupported_file", "Only JSON files are allowed"}},
	{ErrMissingTeam, problem{http.StatusBadRequest, "missing_field", "Team name is required"}},
	{ErrMalformedBody, problem{http.StatusBadRequest, "malformed_payload", "Invalid JSON body"}},
	{submission.ErrMalformedPayload, problem{http.StatusBadRequest, "malformed_payload", "Invalid JSON file format"}},
	{ranking.ErrInvalidSortKey, problem{http.StatusBadRequest, "invalid_sort_key", "Invalid sortBy value"}},
	{validate.ErrMissingField, problem{http.StatusBadRequest, "missing_field", "Required field is missing in the JSON file"}},
	{validate.ErrValidation, problem{http.StatusBadRequest, "validation_failed", "Invalid results file"}},
	{scoring.ErrNoScorablePredictions, problem{http.StatusBadRequest, "no_scorable_predictions", "No predictions matched the ground truth"}},
	{ErrBadRequest, problem{http.StatusBadRequest, "bad_request", "Bad request"}},
	{repository.ErrStoreUnavailable, problem{http.StatusInternalServerError, "store_unavailable", ""}},
	{repository.ErrStoreRejected, problem{http.StatusInternalServerError, "store_rejected", ""}},
}

// classify maps err to a status, code and message. Server-side failures use
// fallback as their message.
func classify(err error, fallback string) problem {
	for _, p := range problems {
		if !errors.Is(err, p.kind) {
			continue
		}
		out := p.problem
		if out.message == "" {
			out.message = fallback
		}
		if out.code == "missing_field" && missingModel(err) {
			out.message = "Model name is required in the JSON file"
		}
		return out
	}
	return problem{http.StatusInternalServerError, "internal_error", fallback}
}

func missingModel(err error) bool {
	var verr *validate.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	for _, f := range verr.Fields {
		if f.Missing && f.Field == validate.FieldModel {
			return true
		}
	}
	return false
}

// details returns the cause of an API error, if it has one.
func details(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Err != nil {
		return apiErr.Err.Error()
	}
	return ""
}
