package rest

import (
	"github.com/gofiber/fiber/v2"

	domainLookup "github.com/AzielCF/az-lookups/domains/lookup"
	pkgError "github.com/AzielCF/az-lookups/pkg/error"
	"github.com/AzielCF/az-lookups/pkg/utils"
)

type Lookup struct {
	Service domainLookup.ILookupUsecase
}

func InitRestLookup(app fiber.Router, service domainLookup.ILookupUsecase) Lookup {
	rest := Lookup{Service: service}
	app.Get("/lookups", rest.GetSnapshot)
	app.Get("/lookups/status", rest.GetStatus)
	app.Post("/lookups/refresh", rest.Refresh)
	app.Post("/lookups/reload", rest.Reload)
	app.Get("/lookups/:bucket", rest.GetBucket)

	return rest
}

func (handler *Lookup) GetSnapshot(c *fiber.Ctx) error {
	snapshot, err := handler.Service.GetSnapshot(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Lookups retrieved",
		Results: snapshot,
	})
}

func (handler *Lookup) GetBucket(c *fiber.Ctx) error {
	var request domainLookup.GetBucketRequest
	request.Bucket = c.Params("bucket")

	bucket, err := handler.Service.GetBucket(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Lookup bucket retrieved",
		Results: bucket,
	})
}

func (handler *Lookup) Refresh(c *fiber.Ctx) error {
	snapshot, err := handler.Service.Refresh(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Lookups refreshed",
		Results: snapshot,
	})
}

func (handler *Lookup) Reload(c *fiber.Ctx) error {
	var request domainLookup.ReloadRequest
	if err := c.QueryParser(&request); err != nil {
		utils.PanicIfNeeded(pkgError.ValidationError(err.Error()))
	}

	snapshot, err := handler.Service.Reload(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Lookups reloaded from store",
		Results: snapshot,
	})
}

func (handler *Lookup) GetStatus(c *fiber.Ctx) error {
	status, err := handler.Service.GetStatus(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Lookup cache status retrieved",
		Results: status,
	})
}
