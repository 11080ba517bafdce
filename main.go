package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Deepraj916/Krishimitra-app/routes"
	"github.com/Deepraj916/Krishimitra-app/services"
	"github.com/Deepraj916/Krishimitra-app/storage"
	"github.com/Deepraj916/Krishimitra-app/utils"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	// Initialize services
	storage.InitializeDB()
	storage.InitializeCloudinary()
	storage.InitializeRedis()

	advisory, advisoryErr := services.NewAdvisoryService(context.Background())
	if advisoryErr != nil {
		log.Printf("⚠️  Leaf disease advisory disabled: %v", advisoryErr)
	}
	routes.Advisory = advisory

	routes.Market = services.NewMarketService()
	routes.Market.StartScheduler()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	// Minimal middleware - compression only
	app.Use(iris.Compression)

	// JWT Verifiers
	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	resetTokenVerifier.WithDefaultBlocklist()
	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
		return new(utils.ResetPasswordToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Health check endpoint
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	// Routes
	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/forgotpassword", routes.ForgotPassword)
		user.Post("/verifyotp", routes.VerifyOTP)
		user.Post("/resetpassword", resetTokenVerifierMiddleware, routes.ResetPassword)
		user.Get("/me", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUser)
		user.Get("/{id}/products/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetUserSavedProducts)
		user.Patch("/{id}/products/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterUserSavedProducts)
	}

	product := app.Party("/api/product")
	{
		product.Post("/", accessTokenVerifierMiddleware, utils.SellerOnlyMiddleware, routes.CreateProduct)
		product.Get("/search", routes.SearchProducts)
		product.Get("/{id}", routes.GetProduct)
		product.Get("/userid/{id}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetProductsBySellerID)
		product.Delete("/{id}", accessTokenVerifierMiddleware, utils.SellerOnlyMiddleware, routes.DeleteProduct)
	}

	conversation := app.Party("/api/conversation")
	{
		conversation.Post("/", accessTokenVerifierMiddleware, routes.StartConversation)
		conversation.Get("/{id:uint}", accessTokenVerifierMiddleware, routes.GetConversationByID)
		conversation.Get("/user/{id}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetConversationsByUserID)
	}

	messages := app.Party("/api/messages")
	{
		messages.Post("/", accessTokenVerifierMiddleware, routes.CreateMessage)
	}

	advisoryParty := app.Party("/api/advisory")
	{
		advisoryParty.Post("/detect", accessTokenVerifierMiddleware, routes.DetectDisease)
	}

	market := app.Party("/api/market")
	{
		market.Get("/prices", routes.GetMarketPrices)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
