package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Deepraj916/Krishimitra-app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Chat errors surfaced to the route layer. Anything wrapping ErrPersistence is
// a backing-store failure; the rest are deterministic validation failures.
var (
	ErrSelfContact    = errors.New("cannot start a conversation on your own product")
	ErrNotParticipant = errors.New("not a participant of this conversation")
	ErrEmptyMessage   = errors.New("message text cannot be empty")
	ErrNotFound       = errors.New("record not found")
	ErrPersistence    = errors.New("persistence failure")
)

const deletedProductName = "[deleted product]"

// ChatService owns the buyer-seller conversation threads: one thread per
// (product, buyer, seller) triple, participant-only access, messages ordered
// by creation time. It reads product rows but never mutates them.
type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// InboxEntry is one row of a user's inbox: the conversation annotated with the
// counterpart and the product it is about.
type InboxEntry struct {
	ConversationID uint      `json:"conversationID"`
	ProductID      uint      `json:"productID"`
	ProductName    string    `json:"productName"`
	CounterpartID  uint      `json:"counterpartID"`
	LastMessage    string    `json:"lastMessage"`
	LastActivity   time.Time `json:"lastActivity"`
}

// FindOrCreateConversation returns the single conversation for the given
// product and buyer, creating it when absent. The seller is always resolved
// from the product record, never from the caller's session. Two concurrent
// first-contact attempts cannot produce two threads: the insert goes through
// ON CONFLICT DO NOTHING on the triple unique index, and a losing insert is
// absorbed by re-reading the winner's row.
func (s *ChatService) FindOrCreateConversation(productID uint, buyerID uint) (*models.Conversation, error) {
	var product models.Product
	if err := s.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load product: %v", ErrPersistence, err)
	}

	if buyerID == product.SellerID {
		return nil, ErrSelfContact
	}

	conversation := models.Conversation{
		ProductID: productID,
		BuyerID:   buyerID,
		SellerID:  product.SellerID,
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "buyer_id"}, {Name: "seller_id"}},
		DoNothing: true,
	}).Create(&conversation)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: create conversation: %v", ErrPersistence, result.Error)
	}

	if result.RowsAffected == 0 {
		// Lost the race (or the thread already existed): return the winner.
		err := s.db.
			Where("product_id = ? AND buyer_id = ? AND seller_id = ?", productID, buyerID, product.SellerID).
			First(&conversation).Error
		if err != nil {
			return nil, fmt.Errorf("%w: load existing conversation: %v", ErrPersistence, err)
		}
	}

	return &conversation, nil
}

// PostMessage appends a message to a conversation on behalf of senderID.
// Only the two recorded participants may post; blank text is rejected.
func (s *ChatService) PostMessage(conversationID uint, senderID uint, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	var conversation models.Conversation
	if err := s.db.First(&conversation, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation %d: %w", conversationID, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load conversation: %v", ErrPersistence, err)
	}

	if senderID != conversation.BuyerID && senderID != conversation.SellerID {
		return nil, ErrNotParticipant
	}

	message := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("%w: create message: %v", ErrPersistence, err)
	}

	return &message, nil
}

// GetThread returns the conversation with its full ordered message history.
// Only participants may read it.
func (s *ChatService) GetThread(conversationID uint, requesterID uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Product").
		Preload("Buyer").
		Preload("Seller").
		First(&conversation, conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation %d: %w", conversationID, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load conversation: %v", ErrPersistence, err)
	}

	if requesterID != conversation.BuyerID && requesterID != conversation.SellerID {
		return nil, ErrNotParticipant
	}

	return &conversation, nil
}

// ListInbox returns every conversation the user participates in, newest
// activity first. Conversations without messages carry the zero-time sentinel
// and therefore sort last.
func (s *ChatService) ListInbox(userID uint) ([]InboxEntry, error) {
	var conversations []models.Conversation
	err := s.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Product").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %v", ErrPersistence, err)
	}

	entries := make([]InboxEntry, 0, len(conversations))
	for _, conversation := range conversations {
		counterpartID := conversation.SellerID
		if userID == conversation.SellerID {
			counterpartID = conversation.BuyerID
		}

		productName := conversation.Product.Name
		if conversation.Product.ID == 0 {
			productName = deletedProductName
		}

		entry := InboxEntry{
			ConversationID: conversation.ID,
			ProductID:      conversation.ProductID,
			ProductName:    productName,
			CounterpartID:  counterpartID,
		}
		if n := len(conversation.Messages); n > 0 {
			last := conversation.Messages[n-1]
			entry.LastMessage = last.Text
			entry.LastActivity = last.CreatedAt
		}
		entries = append(entries, entry)
	}

	// Stable sort keeps insertion order for equal timestamps
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastActivity.After(entries[j].LastActivity)
	})

	return entries, nil
}
