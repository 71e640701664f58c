package middleware

import (
	"fmt"

	pkgError "github.com/AzielCF/az-invert/pkg/error"
	"github.com/AzielCF/az-invert/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery turns a panic raised through utils.PanicIfNeeded into a JSON
// ResponseData. Typed errors keep their own status and code; anything else
// is a 500.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				if genericErr, ok := err.(pkgError.GenericError); ok {
					res.Status = genericErr.StatusCode()
					res.Code = genericErr.ErrCode()
					res.Message = genericErr.Error()
				}

				if res.Status >= 500 {
					logrus.Errorf("[REST] panic recovered on %s %s: %v", ctx.Method(), ctx.Path(), err)
				} else {
					logrus.Debugf("[REST] %s %s rejected: %v", ctx.Method(), ctx.Path(), err)
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
