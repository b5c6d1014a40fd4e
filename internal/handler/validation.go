package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func timezone(fl validator.FieldLevel) bool {
	_, err := time.LoadLocation(fl.Field().String())
	return err == nil
}

// RegisterValidation registers the custom binding validators. "iana_tz"
// accepts any timezone resolvable by [time.LoadLocation].
func RegisterValidation() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return v.RegisterValidation("iana_tz", timezone)
	}
	return fmt.Errorf("error getting validation engine")
}
