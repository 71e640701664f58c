package validations

import (
	"context"
	"errors"
	"strings"

	domainInvert "github.com/AzielCF/az-invert/domains/invert"
	pkgError "github.com/AzielCF/az-invert/pkg/error"
	"github.com/AzielCF/az-invert/pkg/utils"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AllowedExtensions is the set of image extensions accepted for upload.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "gif"}

// IsAllowedExtension only looks at the name; content is checked at decode.
func IsAllowedExtension(filename string) bool {
	if !strings.Contains(filename, ".") {
		return false
	}
	_, ext := utils.SplitExt(filename)
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func allowedExtension(value any) error {
	name, _ := value.(string)
	if !IsAllowedExtension(name) {
		return errors.New("Invalid image type, allowed: " + strings.Join(AllowedExtensions, ", "))
	}
	return nil
}

func ValidateInvertRequest(ctx context.Context, request domainInvert.InvertRequest) error {
	if err := validation.ValidateWithContext(ctx, strings.TrimSpace(request.Filename),
		validation.Required.Error("No file selected"),
		validation.By(allowedExtension),
	); err != nil {
		return pkgError.ValidationError(err.Error())
	}

	if err := validation.ValidateWithContext(ctx, request.Data,
		validation.Required.Error("Uploaded file is empty"),
	); err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
