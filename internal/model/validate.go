// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON names so API clients can map errors to inputs.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
			return IsValidGender(fl.Field().String())
		})
		_ = v.RegisterValidation("senior_status", func(fl validator.FieldLevel) bool {
			return SeniorStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("app_status", func(fl validator.FieldLevel) bool {
			return ApplicationStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return Role(fl.Field().String()).IsValid()
		})

		validate = v
	})
	return validate
}

// FieldErrors validates v against its struct tags and returns a message per
// failing field, keyed by the field's JSON name. It returns nil when v is valid.
func FieldErrors(v any) map[string]string {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "gender":
		return "must be Male, Female or Other"
	case "senior_status":
		return "must be Active, Inactive or Suspended"
	case "app_status":
		return "must be Pending, Approved or Rejected"
	case "role":
		return "must be Admin, Staff or QR Checker Staff"
	case "hexcolor":
		return "must be a hex color such as #065f46"
	case "datauri", "datauri|url":
		return "must be an image data URL"
	default:
		return "is invalid"
	}
}
