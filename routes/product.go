package routes

import (
	"fmt"
	"net/url"

	"github.com/Deepraj916/Krishimitra-app/models"
	"github.com/Deepraj916/Krishimitra-app/storage"
	"github.com/Deepraj916/Krishimitra-app/utils"
	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// CreateProduct lists a new product for the authenticated seller.
// The image arrives as base64 and is uploaded to Cloudinary.
func CreateProduct(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateProductInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	imageURL := ""
	if input.Image != "" {
		publicID := fmt.Sprintf("products/%d/%s", claims.ID, uuid.NewString())
		urlMap := storage.UploadBase64Image(input.Image, publicID)
		imageURL = urlMap["url"]
		if imageURL == "" {
			utils.CreateError(iris.StatusBadRequest, "Upload Error", "Product image upload failed.", ctx)
			return
		}
	}

	product := models.Product{
		Name:        input.Name,
		Category:    input.Category,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    imageURL,
		SellerID:    claims.ID,
	}

	if err := storage.DB.Create(&product).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(product)
}

func GetProduct(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var product models.Product
	productExists := storage.DB.Preload("Seller").Where("id = ?", id).Find(&product)
	if productExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if productExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(product)
}

// SearchProducts serves the store page: optional category and free-text
// filters, newest listings first. When a search term matches nothing, the
// response carries outbound Amazon/Flipkart search links instead.
func SearchProducts(ctx iris.Context) {
	searchTerm := ctx.URLParamDefault("search", "")
	category := ctx.URLParamDefault("category", "")

	query := storage.DB.Model(&models.Product{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if searchTerm != "" {
		pattern := "%" + searchTerm + "%"
		query = query.Where("lower(name) LIKE lower(?) OR lower(description) LIKE lower(?)", pattern, pattern)
	}

	var products []models.Product
	if err := query.Order("id DESC").Find(&products).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	response := iris.Map{
		"products": products,
		"search":   searchTerm,
		"category": category,
	}

	if len(products) == 0 && searchTerm != "" {
		keyword := url.QueryEscape(searchTerm)
		response["amazonLink"] = "https://www.amazon.in/s?k=" + keyword
		response["flipkartLink"] = "https://www.flipkart.com/search?q=" + keyword
	}

	ctx.JSON(response)
}

func GetProductsBySellerID(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var products []models.Product
	if err := storage.DB.Where("seller_id = ?", id).Order("id DESC").Find(&products).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(products)
}

// DeleteProduct removes a listing. Only the owning seller may delete it;
// conversations that reference it survive and fall back to a placeholder name.
func DeleteProduct(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	claims := jwt.Get(ctx).(*utils.AccessToken)

	var product models.Product
	productExists := storage.DB.Where("id = ?", id).Find(&product)
	if productExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if productExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	if product.SellerID != claims.ID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "You are not authorized to delete this product.", ctx)
		return
	}

	if product.ImageURL != "" {
		go storage.DeleteImage(product.ImageURL)
	}

	if err := storage.DB.Delete(&product).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

type CreateProductInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Category    string `json:"category" validate:"required,max=50"`
	Description string `json:"description" validate:"required"`
	Price       string `json:"price" validate:"required,max=50"`
	Image       string `json:"image"`
}
