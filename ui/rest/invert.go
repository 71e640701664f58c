package rest

import (
	"errors"
	"io"
	"net/url"
	"time"

	domainInvert "github.com/AzielCF/az-invert/domains/invert"
	pkgError "github.com/AzielCF/az-invert/pkg/error"
	"github.com/AzielCF/az-invert/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const (
	uploadField     = "file"
	indexView       = "index"
	genericErrorMsg = "Something went wrong while processing the image"
)

type Invert struct {
	Service  domainInvert.IInvertUsecase
	BasePath string
}

func InitRestInvert(app fiber.Router, service domainInvert.IInvertUsecase, basePath string) Invert {
	rest := Invert{Service: service, BasePath: basePath}
	app.Get("/", rest.Form)
	app.Post("/", rest.UploadForm)
	app.Post("/api/invert", rest.InvertImage)
	app.Get(utils.UploadsRoute+"/:filename", rest.ServeUpload)

	return rest
}

func (handler *Invert) Form(c *fiber.Ctx) error {
	return c.Render(indexView, handler.page(nil, ""))
}

// UploadForm keeps the browser on the form: client mistakes are shown
// inline with 200, only server failures change the status.
func (handler *Invert) UploadForm(c *fiber.Ctx) error {
	request, err := readUpload(c)
	if err == nil {
		var response domainInvert.InvertResponse
		response, err = handler.Service.Process(c.UserContext(), request)
		if err == nil {
			return c.Render(indexView, handler.page(&response, ""))
		}
	}

	var genericErr pkgError.GenericError
	if errors.As(err, &genericErr) && genericErr.StatusCode() < fiber.StatusInternalServerError {
		return c.Render(indexView, handler.page(nil, genericErr.Error()))
	}

	logrus.WithError(err).Error("[REST] upload failed")
	return c.Status(fiber.StatusInternalServerError).Render(indexView, handler.page(nil, genericErrorMsg))
}

func (handler *Invert) InvertImage(c *fiber.Ctx) error {
	request, err := readUpload(c)
	utils.PanicIfNeeded(err)

	response, err := handler.Service.Process(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Image processed",
		Results: response,
	})
}

func (handler *Invert) ServeUpload(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("filename"))
	if err != nil {
		utils.PanicIfNeeded(pkgError.NotFoundError("file not found"))
	}

	file, err := handler.Service.Open(c.UserContext(), name)
	utils.PanicIfNeeded(err)

	modTime := file.ModTime.UTC().Truncate(time.Second)
	c.Response().Header.SetBytesV(fiber.HeaderLastModified, fasthttp.AppendHTTPDate(nil, modTime))

	if since := c.Get(fiber.HeaderIfModifiedSince); since != "" {
		if t, err := fasthttp.ParseHTTPDate([]byte(since)); err == nil && !modTime.After(t) {
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	return c.Send(file.Data)
}

func (handler *Invert) page(result *domainInvert.InvertResponse, errMsg string) fiber.Map {
	return fiber.Map{
		"Action": handler.BasePath + "/",
		"Result": result,
		"Error":  errMsg,
	}
}

func readUpload(c *fiber.Ctx) (domainInvert.InvertRequest, error) {
	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		return domainInvert.InvertRequest{}, pkgError.ValidationError("No file part")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return domainInvert.InvertRequest{}, pkgError.InternalServerError("failed to open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domainInvert.InvertRequest{}, pkgError.InternalServerError("failed to read uploaded file")
	}

	return domainInvert.InvertRequest{Filename: fileHeader.Filename, Data: data}, nil
}
