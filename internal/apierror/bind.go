package apierror

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"plastics-backend/internal/ledger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	validate    = validator.New()
	phoneDigits = regexp.MustCompile(`^[0-9]{10}$`)
)

func init() {
	_ = validate.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phoneDigits.MatchString(fl.Field().String())
	})
}

// BindBody parses the JSON body into dst and runs its validate tags.
func BindBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return &Error{Status: fiber.StatusBadRequest, Kind: ledger.KindValidation, Message: "invalid request body"}
	}
	if err := validate.Struct(dst); err != nil {
		return &Error{Status: fiber.StatusBadRequest, Kind: ledger.KindValidation, Message: describe(err)}
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
		}
	}
	sort.Strings(parts)
	return "invalid fields: " + strings.Join(parts, ", ")
}

// ParamID reads a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, &Error{Status: fiber.StatusBadRequest, Kind: ledger.KindValidation, Message: "invalid " + name}
	}
	return uint(id), nil
}
