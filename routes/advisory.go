package routes

import (
	"encoding/base64"
	"strings"

	"github.com/Deepraj916/Krishimitra-app/models"
	"github.com/Deepraj916/Krishimitra-app/services"
	"github.com/Deepraj916/Krishimitra-app/storage"
	"github.com/Deepraj916/Krishimitra-app/utils"
	"github.com/kataras/iris/v12"
)

// Advisory is wired in main after the Gemini client is created.
var Advisory *services.AdvisoryService

// DetectDisease analyzes an uploaded leaf image and suggests catalog products
// matching the remedy keyword.
func DetectDisease(ctx iris.Context) {
	if Advisory == nil {
		utils.CreateError(iris.StatusServiceUnavailable, "Advisory Unavailable",
			"Leaf disease detection is not configured.", ctx)
		return
	}

	var input DetectDiseaseInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	imageData, mimeType, decodeErr := decodeBase64Image(input.Image)
	if decodeErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Upload Error", "Invalid image payload.", ctx)
		return
	}

	diagnosis, detectErr := Advisory.DetectDisease(ctx, imageData, mimeType)
	if detectErr != nil {
		utils.CreateError(iris.StatusBadGateway, "Advisory Error",
			"Could not get a valid response from the AI model.", ctx)
		return
	}

	var suggested []models.Product
	if diagnosis.ProductKeyword != "" {
		pattern := "%" + diagnosis.ProductKeyword + "%"
		storage.DB.
			Where("lower(name) LIKE lower(?) OR lower(description) LIKE lower(?) OR lower(category) LIKE lower(?)",
				pattern, pattern, pattern).
			Order("id DESC").Limit(6).
			Find(&suggested)
	}

	ctx.JSON(iris.Map{
		"diseaseName":       diagnosis.DiseaseName,
		"remedyDescription": diagnosis.RemedyDescription,
		"productKeyword":    diagnosis.ProductKeyword,
		"suggestedProducts": suggested,
	})
}

// decodeBase64Image accepts either a raw base64 string or a data URL and
// returns the decoded bytes with the declared mime type.
func decodeBase64Image(src string) ([]byte, string, error) {
	mimeType := "image/jpeg"
	payload := src

	if strings.HasPrefix(src, "data:") {
		if i := strings.Index(src, ","); i != -1 {
			header := src[:i]
			payload = src[i+1:]
			if j := strings.Index(header, ":"); j != -1 {
				if k := strings.Index(header, ";"); k > j {
					mimeType = header[j+1 : k]
				}
			}
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}

type DetectDiseaseInput struct {
	Image string `json:"image" validate:"required"`
}
