package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/RainierLopez/pos-3l-variety-store-90/internal/apierror"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/middleware"
	"github.com/RainierLopez/pos-3l-variety-store-90/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("invalid_json", "Invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("invalid_filter", err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.WithCode("validation", err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramUUID parses the named path parameter, writing a 400 when malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.WithCode("invalid_id", "Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// errorStatus maps a service error kind to its HTTP status and stable code.
var errorStatus = []struct {
	kind   error
	status int
	code   string
}{
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrDuplicateBarcode, http.StatusConflict, "duplicate_barcode"},
	{service.ErrDuplicateUsername, http.StatusConflict, "duplicate_username"},
	{service.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{service.ErrAlreadyAttached, http.StatusConflict, "already_attached"},
	{service.ErrTerminalState, http.StatusConflict, "terminal_state"},
	{service.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{service.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{service.ErrInvalidPaymentMethod, http.StatusBadRequest, "invalid_payment_method"},
	{service.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{service.ErrWrongPaymentMethod, http.StatusBadRequest, "wrong_payment_method"},
	{service.ErrInvalidCardDetails, http.StatusBadRequest, "invalid_card_details"},
	{service.ErrInvalidImage, http.StatusBadRequest, "invalid_image"},
	{service.ErrInvalidFilter, http.StatusBadRequest, "invalid_filter"},
	{service.ErrInvalidProduct, http.StatusBadRequest, "invalid_product"},
	{service.ErrPermissionDenied, http.StatusForbidden, "permission_denied"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
}

// respondError writes the envelope for err. Unknown errors become a 500 with
// a generic message; the cause is only logged.
func respondError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.kind) {
			c.JSON(e.status, apierror.WithCode(e.code, err.Error()))
			return
		}
	}
	log.Error().Err(err).
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("path", c.FullPath()).
		Msg("internal error")
	c.JSON(http.StatusInternalServerError, apierror.WithCode("internal", "Internal server error"))
}
