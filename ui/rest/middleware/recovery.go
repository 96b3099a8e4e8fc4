package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	pkgError "github.com/AzielCF/az-lookups/pkg/error"
	"github.com/AzielCF/az-lookups/pkg/utils"
)

func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				genericErr, isGenericError := err.(pkgError.GenericError)
				if isGenericError {
					res.Status = genericErr.StatusCode()
					res.Code = genericErr.ErrCode()
					res.Message = genericErr.Error()
				}

				if res.Status >= 500 {
					logrus.Errorf("[REST] Panic recovered in middleware: %v", err)
				} else {
					logrus.Debugf("[REST] Request failed with %s: %s", res.Code, res.Message)
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
