package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
)

var registerValidatorsOnce sync.Once

// registerValidators adds the custom binding tags used by the DTOs.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("memo_priority", func(fl validator.FieldLevel) bool {
			return domain.ValidPriority(domain.Priority(fl.Field().String()))
		})
	})
}
