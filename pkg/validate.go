package pkg

import (
	"errors"
	"fmt"

	errprocess "chat_service/pkg/err"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct check validate tags, 只回報第一個失敗欄位
func ValidateStruct(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		first := vErrs[0]
		return errprocess.Validation(fmt.Sprintf("field [%s] failed rule [%s]", first.Field(), first.Tag()))
	}
	return errprocess.Validation(err.Error())
}
