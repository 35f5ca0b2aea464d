package search

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"jobmate/govjobs-service/internal/model"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("job_status", jobStatusValidator)
	_ = v.RegisterValidation("sort_order", sortOrderValidator)

	// Numeric bounds come from the exported limits.
	v.RegisterAlias("page", fmt.Sprintf("gte=0,lte=%d", model.MaxPage))
	v.RegisterAlias("page_size", fmt.Sprintf("gte=0,lte=%d", model.MaxPageSize))
	v.RegisterAlias("radius_km", fmt.Sprintf("gte=0,lte=%g", MaxRadiusKm))
	v.RegisterAlias("nearby_limit", fmt.Sprintf("gte=0,lte=%d", MaxNearbyLimit))
	return v
}

func jobStatusValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if val == "" {
		return true
	}
	_, err := model.ParseStatus(val)
	return err == nil
}

func sortOrderValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	switch model.SortOrder(strings.TrimSpace(val)) {
	case "", model.SortLatest, model.SortClosingSoon, model.SortRelevance:
		return true
	}
	return false
}
