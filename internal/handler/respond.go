package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/service"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON decodes the request body into dst and validates its tags. The
// returned error is safe to show to the client.
// normalizer is implemented by requests that canonicalise fields before
// validation.
type normalizer interface {
	normalize()
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return describeFieldError(verrs[0])
		}
		return errors.New("invalid request body")
	}
	return nil
}

func describeFieldError(fe validator.FieldError) error {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "min", "gte":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Errorf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, fe.Param())
	case "uuid":
		return fmt.Errorf("%s must be a valid id", field)
	case "email":
		return fmt.Errorf("%s must be a valid email", field)
	}
	return fmt.Errorf("%s is invalid", field)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps order service errors onto HTTP responses. Gateway
// and unexpected failures are logged in full and answered generically.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, service.ErrInvalidSignature.Error())
	case errors.Is(err, service.ErrInvalidPaymentRequest):
		log.Warn(op+" rejected by payment gateway", zap.Error(err))
		writeError(w, http.StatusBadRequest, service.ErrInvalidPaymentRequest.Error())
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidSize),
		errors.Is(err, service.ErrIncompleteComposition),
		errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrConfiguration):
		log.Error(op+" failed: payment gateway misconfigured", zap.Error(err))
		writeError(w, http.StatusInternalServerError, service.ErrPaymentGateway.Error())
	case errors.Is(err, service.ErrPaymentGateway):
		log.Error(op+" failed: payment gateway unavailable", zap.Error(err))
		writeError(w, http.StatusBadGateway, service.ErrPaymentGateway.Error())
	default:
		log.Error(op+" failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parsePagination reads limit/offset, clamping limit to [1, maxLimit].
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid || n.Int == nil {
		return "0.00"
	}
	return decimal.NewFromBigInt(n.Int, n.Exp).StringFixed(2)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}
