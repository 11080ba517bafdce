package routes

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Deepraj916/Krishimitra-app/models"
	"github.com/Deepraj916/Krishimitra-app/storage"
	"github.com/Deepraj916/Krishimitra-app/utils"
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slices"
)

const otpTTL = 10 * time.Minute

func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !utils.ValidatePhoneNumber(userInput.Mobile) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error",
			"Invalid mobile number format. Indian mobile numbers must be 10 digits starting with 6-9.", ctx)
		return
	}

	var existingUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Email, userInput.Mobile)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists {
		utils.CreateAccountAlreadyRegistered(ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser := models.User{
		Email:    strings.ToLower(userInput.Email),
		Mobile:   utils.NormalizePhoneNumber(userInput.Mobile),
		Password: hashedPassword,
		Role:     userInput.Role,
	}

	if err := storage.DB.Create(&newUser).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	returnUser(newUser, ctx)
}

// Login accepts either the email address or the mobile number as identifier,
// matching the registration fields.
func Login(ctx iris.Context) {
	var userInput LoginUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	errorMsg := "Invalid credentials. Please try again."

	var existingUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Identifier, userInput.Identifier)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	returnUser(existingUser, ctx)
}

// ForgotPassword generates a 6-digit OTP, stores it in Redis with a 10-minute
// TTL and delivers it by email and, when a mobile number is on file, by SMS.
func ForgotPassword(ctx iris.Context) {
	var input ForgotPasswordInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, input.Email, input.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Invalid email.", ctx)
		return
	}

	otp := utils.GenerateOTP()
	if err := storage.Redis.Set(ctx, otpKey(user.Email), otp, otpTTL).Err(); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	emailSent, emailErr := utils.SendOTPEmail(user.Email, otp)
	if emailErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if user.Mobile != "" {
		go func(mobile, code string) {
			if _, smsErr := utils.SendOTPSMS(mobile, code); smsErr != nil {
				log.Printf("forgot password: SMS delivery failed: %v", smsErr)
			}
		}(user.Mobile, otp)
	}

	ctx.JSON(iris.Map{"otpSent": emailSent})
}

// VerifyOTP checks the submitted code against Redis, consumes it on success
// and returns a short-lived reset-password token.
func VerifyOTP(ctx iris.Context) {
	var input VerifyOTPInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	email := strings.ToLower(input.Email)
	stored, redisErr := storage.Redis.Get(ctx, otpKey(email)).Result()
	if redisErr != nil || stored != input.OTP {
		utils.CreateError(iris.StatusUnauthorized, "OTP Error", "Invalid or expired OTP.", ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, email, email)
	if userExistsErr != nil || !userExists {
		utils.CreateInternalServerError(ctx)
		return
	}

	// One shot: a verified OTP cannot be replayed
	storage.Redis.Del(ctx, otpKey(email))

	token, tokenErr := utils.CreateResetPasswordToken(user.ID, user.Email)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"token": token})
}

func ResetPassword(ctx iris.Context) {
	var input ResetPasswordInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(input.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	claims := jsonWT.Get(ctx).(*utils.ResetPasswordToken)

	var user models.User
	storage.DB.Model(&user).Where("id = ?", claims.ID).Update("password", hashedPassword)

	ctx.JSON(iris.Map{
		"passwordReset": true,
	})
}

func GetUser(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"ID":     user.ID,
		"email":  user.Email,
		"mobile": utils.DisplayPhoneNumber(user.Mobile),
		"role":   user.Role,
	})
}

func GetUserSavedProducts(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	var savedProducts []uint
	if user.SavedProducts != nil {
		if err := json.Unmarshal(user.SavedProducts, &savedProducts); err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	var products []models.Product
	if err := storage.DB.Where("id IN ?", savedProducts).Find(&products).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(products)
}

func AlterUserSavedProducts(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	var req AlterSavedProductsInput
	err := ctx.ReadJSON(&req)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var product models.Product
	productExists := storage.DB.Find(&product, req.ProductID)
	if productExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if productExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	var savedProducts []uint
	var unMarshalledProducts []uint

	if user.SavedProducts != nil {
		if err := json.Unmarshal(user.SavedProducts, &unMarshalledProducts); err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	if req.Op == "add" {
		if !slices.Contains(unMarshalledProducts, req.ProductID) {
			savedProducts = append(unMarshalledProducts, req.ProductID)
		} else {
			savedProducts = unMarshalledProducts
		}
	} else if req.Op == "remove" && len(unMarshalledProducts) > 0 {
		for _, productID := range unMarshalledProducts {
			if req.ProductID != productID {
				savedProducts = append(savedProducts, productID)
			}
		}
	}

	marshalledProducts, marshalErr := json.Marshal(savedProducts)
	if marshalErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	user.SavedProducts = marshalledProducts

	if err := storage.DB.Model(&user).Update("saved_products", user.SavedProducts).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func otpKey(email string) string {
	return "otp:" + strings.ToLower(email)
}

// getAndHandleUserExists looks a user up by email or mobile, matching the
// registration uniqueness rule.
func getAndHandleUserExists(user *models.User, email string, mobile string) (exists bool, err error) {
	normalizedMobile := utils.NormalizePhoneNumber(mobile)
	userExistsQuery := storage.DB.
		Where("email = ? OR mobile = ?", strings.ToLower(email), normalizedMobile).
		Limit(1).Find(&user)

	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}

	return userExistsQuery.RowsAffected > 0, nil
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func getUserByID(id string, ctx iris.Context) *models.User {
	var user models.User
	userExists := storage.DB.Where("id = ?", id).Find(&user)

	if userExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}

	if userExists.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "User not found", ctx)
		return nil
	}

	return &user
}

func returnUser(user models.User, ctx iris.Context) {
	tokenPair, tokenErr := utils.CreateTokenPair(user.ID)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"ID":           user.ID,
		"email":        user.Email,
		"mobile":       user.Mobile,
		"role":         user.Role,
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}

func parseUserID(id string) uint {
	parsed, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0
	}
	return uint(parsed)
}

type RegisterUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Mobile   string `json:"mobile" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=256"`
	Role     string `json:"role" validate:"required,oneof=buyer seller customer"`
}

type LoginUserInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPInput struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

type ResetPasswordInput struct {
	Password string `json:"password" validate:"required,min=8,max=256"`
}

type AlterSavedProductsInput struct {
	ProductID uint   `json:"productID" validate:"required"`
	Op        string `json:"op" validate:"required,oneof=add remove"`
}
