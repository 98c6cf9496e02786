package service

import (
	"errors"
	"reflect"
	"strings"

	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"
	"github.com/iceymoss/local-blog-genius/pkg/sensitive"
	"github.com/iceymoss/local-blog-genius/pkg/utils"
	"github.com/iceymoss/local-blog-genius/pkg/xerr"

	"github.com/go-playground/validator/v10"
)

// Validator 结构体校验加敏感词过滤
type Validator struct {
	validate *validator.Validate
	words    *sensitive.Word
}

// NewValidator words 为 nil 时不做敏感词过滤
func NewValidator(words *sensitive.Word) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息使用 json 字段名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("iana_tz", func(fl validator.FieldLevel) bool {
		_, err := utils.LoadTimezone(fl.Field().String())
		return err == nil
	})
	return &Validator{validate: v, words: words}
}

// Struct 校验失败时返回 Validation 错误，只报告第一个字段
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		return xerrors.Validation("%s", fieldMessage(ves[0]))
	}
	return xerrors.Wrap(xerrors.KindValidation, err, "invalid input")
}

// Screen 检查输入是否包含屏蔽词
func (v *Validator) Screen(values ...string) error {
	if v.words == nil {
		return nil
	}
	for _, s := range values {
		if ok, word := v.words.Validate(s); !ok {
			return xerrors.WithCode(xerrors.KindValidation, xerr.ErrBlockedWord, "contains blocked word: "+word)
		}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "iana_tz":
		return field + " must be a valid IANA timezone"
	default:
		return field + " is invalid"
	}
}
