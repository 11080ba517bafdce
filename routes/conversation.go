package routes

import (
	"errors"

	"github.com/Deepraj916/Krishimitra-app/models"
	"github.com/Deepraj916/Krishimitra-app/services"
	"github.com/Deepraj916/Krishimitra-app/storage"
	"github.com/Deepraj916/Krishimitra-app/utils"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// StartConversation finds or creates the buyer's thread for a product and
// optionally posts an opening message in the same request.
func StartConversation(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input StartConversationInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	chat := services.NewChatService(storage.DB)

	conversation, chatErr := chat.FindOrCreateConversation(input.ProductID, claims.ID)
	if chatErr != nil {
		handleChatError(chatErr, ctx)
		return
	}

	var message *models.Message
	if input.Message != "" {
		message, chatErr = chat.PostMessage(conversation.ID, claims.ID, input.Message)
		if chatErr != nil {
			handleChatError(chatErr, ctx)
			return
		}
		go notifyCounterpart(conversation, claims.ID)
	}

	ctx.JSON(iris.Map{
		"conversation": conversation,
		"message":      message,
	})
}

// GetConversationByID returns the full thread for a participant.
func GetConversationByID(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	conversationID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid conversation id.", ctx)
		return
	}

	chat := services.NewChatService(storage.DB)

	conversation, chatErr := chat.GetThread(conversationID, claims.ID)
	if chatErr != nil {
		handleChatError(chatErr, ctx)
		return
	}

	ctx.JSON(conversation)
}

// GetConversationsByUserID serves the inbox, most recent activity first.
func GetConversationsByUserID(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	userID := parseUserID(id)
	if userID == 0 {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user id.", ctx)
		return
	}

	chat := services.NewChatService(storage.DB)

	inbox, chatErr := chat.ListInbox(userID)
	if chatErr != nil {
		handleChatError(chatErr, ctx)
		return
	}

	ctx.JSON(inbox)
}

// CreateMessage appends a message to an existing conversation.
func CreateMessage(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateMessageInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	chat := services.NewChatService(storage.DB)

	message, chatErr := chat.PostMessage(input.ConversationID, claims.ID, input.Text)
	if chatErr != nil {
		handleChatError(chatErr, ctx)
		return
	}

	if conversation, threadErr := chat.GetThread(input.ConversationID, claims.ID); threadErr == nil {
		go notifyCounterpart(conversation, claims.ID)
	}

	ctx.JSON(message)
}

func notifyCounterpart(conversation *models.Conversation, senderID uint) {
	receiverID := conversation.SellerID
	if senderID == conversation.SellerID {
		receiverID = conversation.BuyerID
	}

	var sender models.User
	if err := storage.DB.First(&sender, senderID).Error; err != nil {
		return
	}

	productName := conversation.Product.Name
	if productName == "" {
		productName = "a product"
	}

	notificationService := services.NewNotificationService()
	notificationService.SendMessageNotification(receiverID, sender.Email, productName)
}

// handleChatError maps chat service errors onto HTTP responses. Persistence
// failures and anything unrecognized become a 500.
func handleChatError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrSelfContact):
		utils.CreateError(iris.StatusBadRequest, "Conversation Error",
			"You cannot message yourself about your own product.", ctx)
	case errors.Is(err, services.ErrEmptyMessage):
		utils.CreateError(iris.StatusBadRequest, "Message Error",
			"Message cannot be empty.", ctx)
	case errors.Is(err, services.ErrNotParticipant):
		utils.CreateError(iris.StatusForbidden, "Forbidden",
			"You are not a participant of this conversation.", ctx)
	case errors.Is(err, services.ErrNotFound):
		utils.CreateNotFound(ctx)
	default:
		utils.CreateInternalServerError(ctx)
	}
}

type StartConversationInput struct {
	ProductID uint   `json:"productID" validate:"required"`
	Message   string `json:"message"`
}

type CreateMessageInput struct {
	ConversationID uint   `json:"conversationID" validate:"required"`
	Text           string `json:"text" validate:"required,lt=5000"`
}
