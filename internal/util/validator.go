package util

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// 与 user_account.username 列宽一致
const maxUsernameLen = 64

// RegisterValidators 注册自定义的 binding 规则
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
}

var standalone = validator.New()

// ValidEmail 使用 validator 的 email 规则
func ValidEmail(email string) bool {
	return standalone.Var(email, "required,email") == nil
}

// ValidUsername 只要求非空、不含控制字符且不超过列宽，允许空格和非 ASCII 字符
func ValidUsername(username string) bool {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLen {
		return false
	}
	return strings.IndexFunc(username, unicode.IsControl) < 0
}
