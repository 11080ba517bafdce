package services

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Deepraj916/Krishimitra-app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupChatDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Conversation{},
		&models.Message{},
	))

	return db
}

var mobileSeq uint64

func seedUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	user := models.User{
		Email:    email,
		Mobile:   fmt.Sprintf("9%09d", atomic.AddUint64(&mobileSeq, 1)),
		Password: "x",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, sellerID uint, name string) models.Product {
	t.Helper()
	product := models.Product{
		Name:        name,
		Category:    "fertilizers",
		Description: "test listing",
		Price:       "₹450 / 5kg bag",
		SellerID:    sellerID,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestFindOrCreateConversationIdempotent(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	seller := seedUser(t, db, "seller@farm.in", "seller")
	buyer := seedUser(t, db, "buyer@farm.in", "buyer")
	product := seedProduct(t, db, seller.ID, "Neem Oil")

	first, err := chat.FindOrCreateConversation(product.ID, buyer.ID)
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	assert.Equal(t, product.ID, first.ProductID)
	assert.Equal(t, buyer.ID, first.BuyerID)
	assert.Equal(t, seller.ID, first.SellerID)

	second, err := chat.FindOrCreateConversation(product.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFindOrCreateConversationConcurrent(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	seller := seedUser(t, db, "seller@farm.in", "seller")
	buyer := seedUser(t, db, "buyer@farm.in", "buyer")
	product := seedProduct(t, db, seller.ID, "Neem Oil")

	// sqlite allows a single writer; one pooled connection keeps the
	// concurrent inserts from tripping over the file lock while they still
	// race for the same triple
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const attempts = 8
	ids := make([]uint, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conversation, err := chat.FindOrCreateConversation(product.ID, buyer.ID)
			errs[i] = err
			if err == nil {
				ids[i] = conversation.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFindOrCreateConversationAbsorbsExistingRow(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	seller := seedUser(t, db, "seller@farm.in", "seller")
	buyer := seedUser(t, db, "buyer@farm.in", "buyer")
	product := seedProduct(t, db, seller.ID, "Neem Oil")

	// Simulate a concurrent winner already holding the triple
	winner := models.Conversation{ProductID: product.ID, BuyerID: buyer.ID, SellerID: seller.ID}
	require.NoError(t, db.Create(&winner).Error)

	got, err := chat.FindOrCreateConversation(product.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFindOrCreateConversationSelfContact(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	seller := seedUser(t, db, "seller@farm.in", "seller")
	product := seedProduct(t, db, seller.ID, "Neem Oil")

	_, err := chat.FindOrCreateConversation(product.ID, seller.ID)
	assert.ErrorIs(t, err, ErrSelfContact)

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Zero(t, count)
}

func TestFindOrCreateConversationUnknownProduct(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	buyer := seedUser(t, db, "buyer@farm.in", "buyer")

	_, err := chat.FindOrCreateConversation(9999, buyer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostMessageEmptyText(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	seller := seedUser(t, db, "seller@farm.in", "seller")
	buyer := seedUser(t, db, "buyer@farm.in", "buyer")
	product := seedProduct(t, db, seller.ID, "Neem Oil")

	conversation, err := chat.FindOrCreateConversation(product.ID, buyer.ID)
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := chat.PostMessage(conversation.ID, buyer.ID, text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	var count int64
	db.Model(&models.Message{}).Count(&count)
	assert.Zero(t, count)
}

func TestPostMessageNotParticipant(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	seller := seedUser(t, db, "seller@farm.in", "seller")
	buyer := seedUser(t, db, "buyer@farm.in", "buyer")
	outsider := seedUser(t, db, "outsider@farm.in", "buyer")
	product := seedProduct(t, db, seller.ID, "Neem Oil")

	conversation, err := chat.FindOrCreateConversation(product.ID, buyer.ID)
	require.NoError(t, err)

	_, err = chat.PostMessage(conversation.ID, outsider.ID, "hello")
	assert.ErrorIs(t, err, ErrNotParticipant)

	var count int64
	db.Model(&models.Message{}).Count(&count)
	assert.Zero(t, count)
}

func TestPostMessageUnknownConversation(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	buyer := seedUser(t, db, "buyer@farm.in", "buyer")

	_, err := chat.PostMessage(4242, buyer.ID, "hello")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetThreadOrderingAndAccess(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	seller := seedUser(t, db, "seller@farm.in", "seller")
	buyer := seedUser(t, db, "buyer@farm.in", "buyer")
	outsider := seedUser(t, db, "outsider@farm.in", "customer")
	product := seedProduct(t, db, seller.ID, "Neem Oil")

	conversation, err := chat.FindOrCreateConversation(product.ID, buyer.ID)
	require.NoError(t, err)

	texts := []string{"one", "two", "three", "four", "five"}
	for i, text := range texts {
		sender := buyer.ID
		if i%2 == 1 {
			sender = seller.ID
		}
		_, err := chat.PostMessage(conversation.ID, sender, text)
		require.NoError(t, err)
	}

	thread, err := chat.GetThread(conversation.ID, buyer.ID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, len(texts))
	for i, message := range thread.Messages {
		assert.Equal(t, texts[i], message.Text)
	}
	assert.Equal(t, product.ID, thread.Product.ID)
	assert.Equal(t, buyer.ID, thread.BuyerID)
	assert.Equal(t, seller.ID, thread.SellerID)

	// Seller sees the same thread; outsiders are rejected
	_, err = chat.GetThread(conversation.ID, seller.ID)
	assert.NoError(t, err)
	_, err = chat.GetThread(conversation.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestListInboxSortingAndCounterpart(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	sellerA := seedUser(t, db, "sellerA@farm.in", "seller")
	sellerB := seedUser(t, db, "sellerB@farm.in", "seller")
	buyer := seedUser(t, db, "buyer@farm.in", "buyer")
	other := seedUser(t, db, "other@farm.in", "buyer")

	productA := seedProduct(t, db, sellerA.ID, "Neem Oil")
	productB := seedProduct(t, db, sellerB.ID, "Tractor Tyre")
	productC := seedProduct(t, db, sellerA.ID, "Urea Bag")

	convOld, err := chat.FindOrCreateConversation(productA.ID, buyer.ID)
	require.NoError(t, err)
	convNew, err := chat.FindOrCreateConversation(productB.ID, buyer.ID)
	require.NoError(t, err)
	convEmpty, err := chat.FindOrCreateConversation(productC.ID, buyer.ID)
	require.NoError(t, err)

	// Someone else's conversation must never appear in this buyer's inbox
	_, err = chat.FindOrCreateConversation(productA.ID, other.ID)
	require.NoError(t, err)

	oldMsg, err := chat.PostMessage(convOld.ID, buyer.ID, "still available?")
	require.NoError(t, err)
	newMsg, err := chat.PostMessage(convNew.ID, buyer.ID, "price negotiable?")
	require.NoError(t, err)

	// Force distinct, known timestamps
	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Message{}).Where("id = ?", oldMsg.ID).
		Update("created_at", base).Error)
	require.NoError(t, db.Model(&models.Message{}).Where("id = ?", newMsg.ID).
		Update("created_at", base.Add(10*time.Minute)).Error)

	inbox, err := chat.ListInbox(buyer.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 3)

	assert.Equal(t, convNew.ID, inbox[0].ConversationID)
	assert.Equal(t, convOld.ID, inbox[1].ConversationID)
	assert.Equal(t, convEmpty.ID, inbox[2].ConversationID)

	assert.Equal(t, sellerB.ID, inbox[0].CounterpartID)
	assert.Equal(t, "Tractor Tyre", inbox[0].ProductName)
	assert.Equal(t, "price negotiable?", inbox[0].LastMessage)
	assert.True(t, inbox[2].LastActivity.IsZero())

	// The seller's view annotates the buyer as counterpart
	sellerInbox, err := chat.ListInbox(sellerB.ID)
	require.NoError(t, err)
	require.Len(t, sellerInbox, 1)
	assert.Equal(t, buyer.ID, sellerInbox[0].CounterpartID)
}

func TestListInboxDeletedProductPlaceholder(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	seller := seedUser(t, db, "seller@farm.in", "seller")
	buyer := seedUser(t, db, "buyer@farm.in", "buyer")
	product := seedProduct(t, db, seller.ID, "Neem Oil")

	conversation, err := chat.FindOrCreateConversation(product.ID, buyer.ID)
	require.NoError(t, err)
	_, err = chat.PostMessage(conversation.ID, buyer.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, db.Delete(&product).Error)

	inbox, err := chat.ListInbox(buyer.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "[deleted product]", inbox[0].ProductName)
}

func TestBuyerSellerScenario(t *testing.T) {
	db := setupChatDB(t)
	chat := NewChatService(db)

	s1 := seedUser(t, db, "s1@farm.in", "seller")
	b1 := seedUser(t, db, "b1@farm.in", "buyer")
	p1 := seedProduct(t, db, s1.ID, "Organic Compost")

	c1, err := chat.FindOrCreateConversation(p1.ID, b1.ID)
	require.NoError(t, err)

	thread, err := chat.GetThread(c1.ID, b1.ID)
	require.NoError(t, err)
	assert.Empty(t, thread.Messages)

	_, err = chat.PostMessage(c1.ID, b1.ID, "Is this available?")
	require.NoError(t, err)
	_, err = chat.PostMessage(c1.ID, s1.ID, "Yes, in stock.")
	require.NoError(t, err)

	thread, err = chat.GetThread(c1.ID, b1.ID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, "Is this available?", thread.Messages[0].Text)
	assert.Equal(t, "Yes, in stock.", thread.Messages[1].Text)

	buyerInbox, err := chat.ListInbox(b1.ID)
	require.NoError(t, err)
	require.Len(t, buyerInbox, 1)
	assert.Equal(t, s1.ID, buyerInbox[0].CounterpartID)

	sellerInbox, err := chat.ListInbox(s1.ID)
	require.NoError(t, err)
	require.Len(t, sellerInbox, 1)
	assert.Equal(t, b1.ID, sellerInbox[0].CounterpartID)
}
