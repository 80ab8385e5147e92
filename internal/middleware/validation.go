package middleware

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/errors"
)

var customErrorMessages = map[string]string{
	"required":       "is required",
	"max":            "is too long",
	"specialization": "must be a valid specialization",
}

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags and reports JSON field
// names in validation errors. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		if err := v.RegisterValidation("specialization", func(fl validator.FieldLevel) bool {
			return model.Specialization(fl.Field().String()).Valid()
		}); err != nil {
			panic(err)
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// BindError turns a ShouldBindJSON failure into a 400 with a readable message.
func BindError(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msg, ok := customErrorMessages[e.Tag()]
			if !ok {
				msg = "failed on " + e.Tag()
			}
			parts = append(parts, fmt.Sprintf("%s %s", e.Field(), msg))
		}
		return errors.BadRequest(strings.Join(parts, "; "), err)
	}

	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		return errors.BadRequest("Malformed JSON body", err)
	}

	// LocalTime parse failures and type mismatches land here.
	return errors.BadRequest("Invalid request body: "+err.Error(), err)
}
