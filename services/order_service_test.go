package services

import (
	"context"
	"testing"
	"time"

	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var saigon = mustLoadLocation("Asia/Ho_Chi_Minh")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type orderFixture struct {
	db       *gorm.DB
	customer *models.User
	artist   *models.User
	service  *models.ServiceType
	orders   *OrderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	return &orderFixture{
		db:       db,
		customer: testutil.CreateUser(t, db, "customer", models.RoleCustomer),
		artist:   testutil.CreateUser(t, db, "artist", models.RoleArtist),
		service:  testutil.CreateServiceType(t, db, "Sketch Gacha Scan", 90000),
		orders:   NewOrderService(db).WithLocation(saigon),
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestOrderService_Create_SequentialNumbers(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.WithClock(fixedClock(time.Date(2025, time.January, 1, 10, 0, 0, 0, saigon)))

	expected := []string{"DH-20250101-00001", "DH-20250101-00002", "DH-20250101-00003"}
	for _, orderNo := range expected {
		order, err := f.orders.Create(context.Background(), f.customer.ID, CreateOrderInput{
			ServiceTypeID: f.service.ID,
			Description:   "  bust-up sketch  ",
		})
		require.NoError(t, err)
		assert.Equal(t, orderNo, order.OrderNo)
		assert.Equal(t, models.OrderPending, order.Status)
		assert.Equal(t, int64(90000), order.Price)
		assert.Equal(t, "bust-up sketch", order.Description)
	}

	var seq models.OrderSequence
	require.NoError(t, f.db.First(&seq, "seq_date = ?", "20250101").Error)
	assert.Equal(t, int64(3), seq.LastSeq)
}

func TestOrderService_Create_CounterRestartsEachDay(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	input := CreateOrderInput{ServiceTypeID: f.service.ID, Description: "sketch"}

	f.orders.WithClock(fixedClock(time.Date(2025, time.January, 1, 23, 0, 0, 0, saigon)))
	_, err := f.orders.Create(ctx, f.customer.ID, input)
	require.NoError(t, err)
	second, err := f.orders.Create(ctx, f.customer.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "DH-20250101-00002", second.OrderNo)

	f.orders.WithClock(fixedClock(time.Date(2025, time.January, 2, 0, 5, 0, 0, saigon)))
	next, err := f.orders.Create(ctx, f.customer.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "DH-20250102-00001", next.OrderNo)
}

func TestOrderService_Create_DatesInConfiguredZone(t *testing.T) {
	f := newOrderFixture(t)
	// 18:00 UTC on Jan 1 is already Jan 2 in Ho Chi Minh City
	f.orders.WithClock(fixedClock(time.Date(2025, time.January, 1, 18, 0, 0, 0, time.UTC)))

	order, err := f.orders.Create(context.Background(), f.customer.ID, CreateOrderInput{ServiceTypeID: f.service.ID, Description: "sketch"})
	require.NoError(t, err)
	assert.Equal(t, "DH-20250102-00001", order.OrderNo)
	assert.Equal(t, "DH00001", order.ShortOrderNo())
}

func TestOrderService_Create_RecoversFromStaleCounter(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.WithClock(fixedClock(time.Date(2025, time.March, 8, 9, 0, 0, 0, saigon)))

	// orders issued without advancing the counter
	for _, orderNo := range []string{"DH-20250308-00001", "DH-20250308-00002"} {
		order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)
		require.NoError(t, f.db.Model(order).Update("order_no", orderNo).Error)
	}

	order, err := f.orders.Create(context.Background(), f.customer.ID, CreateOrderInput{ServiceTypeID: f.service.ID, Description: "sketch"})
	require.NoError(t, err)
	assert.Equal(t, "DH-20250308-00003", order.OrderNo)
}

func TestOrderService_Create_RejectsUnavailableService(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Model(f.service).Update("is_active", false).Error)
	_, err := f.orders.Create(ctx, f.customer.ID, CreateOrderInput{ServiceTypeID: f.service.ID, Description: "sketch"})
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	_, err = f.orders.Create(ctx, f.customer.ID, CreateOrderInput{ServiceTypeID: 9999, Description: "sketch"})
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	f.db.Model(&models.Order{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestOrderService_Decide(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	notifier := NewMockNotifier()
	SetNotifier(notifier)
	defer SetNotifier(nil)

	t.Run("approve keeps the order price", func(t *testing.T) {
		order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)

		updated, err := f.orders.Decide(ctx, order.ID, DecisionInput{Approve: true, AdminNote: "Looks great"})
		require.NoError(t, err)
		assert.Equal(t, models.OrderApproved, updated.Status)
		assert.Equal(t, int64(90000), updated.Price)
		assert.Equal(t, "Looks great", updated.AdminNote)
		assert.NotNil(t, updated.ApprovedAt)
	})

	t.Run("approve with a custom price", func(t *testing.T) {
		order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)
		price := int64(120000)

		updated, err := f.orders.Decide(ctx, order.ID, DecisionInput{Approve: true, Price: &price})
		require.NoError(t, err)
		assert.Equal(t, int64(120000), updated.Price)
	})

	t.Run("negative price is rejected", func(t *testing.T) {
		order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)
		price := int64(-1)

		_, err := f.orders.Decide(ctx, order.ID, DecisionInput{Approve: true, Price: &price})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "price", validationErr.Field)
	})

	t.Run("reject cancels", func(t *testing.T) {
		order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)

		updated, err := f.orders.Decide(ctx, order.ID, DecisionInput{Approve: false, AdminNote: "Fully booked"})
		require.NoError(t, err)
		assert.Equal(t, models.OrderCancelled, updated.Status)
		assert.Nil(t, updated.ApprovedAt)
	})

	t.Run("only pending orders can be decided", func(t *testing.T) {
		order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderApproved)

		_, err := f.orders.Decide(ctx, order.ID, DecisionInput{Approve: true})
		var stateErr *StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, "INVALID_TRANSITION", stateErr.Code)

		_, err = f.orders.Decide(ctx, order.ID, DecisionInput{Approve: false})
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, "INVALID_TRANSITION", stateErr.Code)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := f.orders.Decide(ctx, 9999, DecisionInput{Approve: true})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	notices := notifier.Notices()
	require.Len(t, notices, 3)
	assert.Equal(t, f.customer.ID, notices[0].UserID)
	assert.Contains(t, notices[0].Body, "90.000 VNĐ")
	assert.Contains(t, notices[2].Subject, "declined")
}

func TestOrderService_PriceSurvivesCatalogEdits(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	catalog := NewCatalogService(f.db)

	order, err := f.orders.Create(ctx, f.customer.ID, CreateOrderInput{ServiceTypeID: f.service.ID, Description: "Two characters"})
	require.NoError(t, err)
	assert.Equal(t, int64(90000), order.Price)

	_, err = catalog.UpdateService(ctx, f.service.ID, ServiceTypeInput{Name: f.service.Name, Price: 150000})
	require.NoError(t, err)

	var stored models.Order
	require.NoError(t, f.db.First(&stored, order.ID).Error)
	assert.Equal(t, int64(90000), stored.Price)

	approved, err := f.orders.Decide(ctx, order.ID, DecisionInput{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, int64(90000), approved.Price, "approval without a price keeps the order's own price")
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	t.Run("artist can force any order into a manual status", func(t *testing.T) {
		for _, from := range []models.OrderStatus{models.OrderPending, models.OrderApproved, models.OrderPaid, models.OrderCompleted} {
			order := testutil.CreateOrder(t, f.db, f.customer, f.service, from)

			updated, err := f.orders.UpdateStatus(ctx, order.ID, models.OrderInProgress, "started")
			require.NoError(t, err, from)
			assert.Equal(t, models.OrderInProgress, updated.Status)
			assert.Equal(t, "started", updated.AdminNote)
		}
	})

	t.Run("completion stamps completed_at", func(t *testing.T) {
		order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderInProgress)

		updated, err := f.orders.UpdateStatus(ctx, order.ID, models.OrderCompleted, "")
		require.NoError(t, err)
		assert.Equal(t, models.OrderCompleted, updated.Status)
		assert.NotNil(t, updated.CompletedAt)
	})

	t.Run("approved and paid are not manual targets", func(t *testing.T) {
		order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)

		for _, target := range []models.OrderStatus{models.OrderApproved, models.OrderPaid, models.OrderPending} {
			_, err := f.orders.UpdateStatus(ctx, order.ID, target, "")
			var stateErr *StateError
			require.ErrorAs(t, err, &stateErr, target)
			assert.Equal(t, "INVALID_TRANSITION", stateErr.Code)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)

		_, err := f.orders.UpdateStatus(ctx, order.ID, "shipped", "")
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestOrderService_GuardedUpdateDetectsConcurrentChange(t *testing.T) {
	f := newOrderFixture(t)
	order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)

	// the order was read as pending but has since been cancelled
	stale := *order
	require.NoError(t, f.db.Model(order).Update("status", models.OrderCancelled).Error)

	err := guardedUpdate(f.db, &stale, map[string]interface{}{"status": models.OrderApproved}, "approve", models.OrderApproved)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "INVALID_TRANSITION", stateErr.Code)
	assert.Contains(t, stateErr.Message, "cancelled")

	var current models.Order
	require.NoError(t, f.db.First(&current, order.ID).Error)
	assert.Equal(t, models.OrderCancelled, current.Status)
}

func TestOrderService_ListAndDetail(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	other := testutil.CreateUser(t, f.db, "other", models.RoleCustomer)

	pending := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)
	testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderApproved)
	foreign := testutil.CreateOrder(t, f.db, other, f.service, models.OrderPending)

	all, err := f.orders.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	all, err = f.orders.List(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := f.orders.List(ctx, "pending")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
	for _, order := range filtered {
		assert.Equal(t, models.OrderPending, order.Status)
	}

	_, err = f.orders.List(ctx, "bogus")
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	// customers cannot see each other's orders
	_, err = f.orders.Detail(ctx, f.customer, foreign.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	detail, err := f.orders.Detail(ctx, f.customer, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, f.customer.Username, detail.Customer.Username)
	assert.Equal(t, f.service.Name, detail.ServiceType.Name)

	// the artist can open any order
	detail, err = f.orders.Detail(ctx, f.artist, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, detail.CustomerID)
}

func TestOrderService_DetailMarksCounterpartMessagesRead(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)

	fromCustomer := testutil.CreateMessage(t, f.db, order, f.customer, "hello")
	fromArtist := testutil.CreateMessage(t, f.db, order, f.artist, "hi")

	detail, err := f.orders.Detail(ctx, f.artist, order.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "hello", detail.Messages[0].Content)
	assert.Equal(t, f.customer.Username, detail.Messages[0].Sender.Username)

	var customerMessage, artistMessage models.Message
	require.NoError(t, f.db.First(&customerMessage, fromCustomer.ID).Error)
	assert.True(t, customerMessage.IsRead, "the artist opening the order reads the customer's messages")
	require.NoError(t, f.db.First(&artistMessage, fromArtist.ID).Error)
	assert.False(t, artistMessage.IsRead, "the artist's own messages stay unread for the customer")

	_, err = f.orders.Detail(ctx, f.customer, order.ID)
	require.NoError(t, err)
	var artistMessageAfter models.Message
	require.NoError(t, f.db.First(&artistMessageAfter, fromArtist.ID).Error)
	assert.True(t, artistMessageAfter.IsRead)
}

func TestOrderService_AddProgress(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderInProgress)

	first, err := f.orders.WithClock(fixedClock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))).
		AddProgress(ctx, order.ID, f.artist.ID, ProgressInput{ImageKey: "progress/a.png", Note: " lineart "})
	require.NoError(t, err)
	assert.Equal(t, "lineart", first.Note)
	require.NotNil(t, first.CreatedByID)
	assert.Equal(t, f.artist.ID, *first.CreatedByID)

	_, err = f.orders.WithClock(fixedClock(time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC))).
		AddProgress(ctx, order.ID, f.artist.ID, ProgressInput{ImageKey: "progress/b.png", IsFinal: true})
	require.NoError(t, err)

	loaded, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Progress, 2)
	assert.Equal(t, "progress/b.png", loaded.Progress[0].ImageKey, "newest progress first")
	assert.True(t, loaded.Progress[0].IsFinal)

	_, err = f.orders.AddProgress(ctx, 9999, f.artist.ID, ProgressInput{ImageKey: "progress/c.png"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_DeleteCascades(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	store := NewMockFileStore()
	store.SetAsMockForTesting()
	defer SetAttachmentService(nil)

	brief := "briefs/brief.pdf"
	store.Seed(brief, []byte("brief"))
	store.Seed("payments/proof.png", []byte("proof"))
	store.Seed("progress/wip.png", []byte("wip"))

	order := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPaid)
	require.NoError(t, f.db.Model(order).Update("brief_key", brief).Error)
	require.NoError(t, f.db.Create(&models.Payment{OrderID: order.ID, Amount: 90000, ProofKey: "payments/proof.png", Status: models.PaymentVerified}).Error)
	require.NoError(t, f.db.Create(&models.OrderProgress{OrderID: order.ID, ImageKey: "progress/wip.png"}).Error)
	testutil.CreateMessage(t, f.db, order, f.customer, "hello")

	kept := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)
	testutil.CreateMessage(t, f.db, kept, f.customer, "keep me")

	require.NoError(t, f.orders.Delete(ctx, order.ID))

	var count int64
	f.db.Model(&models.Order{}).Where("id = ?", order.ID).Count(&count)
	assert.Zero(t, count)
	f.db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Zero(t, count)
	f.db.Model(&models.OrderProgress{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Zero(t, count)
	f.db.Model(&models.Message{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Zero(t, count)
	f.db.Model(&models.Message{}).Where("order_id = ?", kept.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	assert.Empty(t, store.Files(), "every attachment of the order is removed")

	assert.ErrorIs(t, f.orders.Delete(ctx, order.ID), ErrNotFound)
}

func TestOrderService_Dashboards(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	pending := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)
	approved := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderApproved)
	testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderInProgress)
	testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderCompleted)
	require.NoError(t, f.db.Create(&models.Payment{OrderID: approved.ID, Amount: 90000, ProofKey: "payments/p.png", Status: models.PaymentPending}).Error)

	testutil.CreateMessage(t, f.db, pending, f.artist, "question about your brief")
	testutil.CreateMessage(t, f.db, pending, f.artist, "another one")
	testutil.CreateMessage(t, f.db, approved, f.customer, "paid!")

	customer, err := f.orders.CustomerDashboard(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, customer.Orders, 4)
	assert.Equal(t, int64(1), customer.CompletedCount)
	assert.Equal(t, int64(2), customer.UnreadMessages)
	for _, summary := range customer.Orders {
		if summary.ID == pending.ID {
			assert.Equal(t, int64(2), summary.UnreadCount)
		} else {
			assert.Zero(t, summary.UnreadCount)
		}
	}

	artist, err := f.orders.ArtistDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), artist.PendingOrders)
	assert.Equal(t, int64(1), artist.PendingPayments)
	assert.Equal(t, int64(1), artist.InProgressOrders)
	assert.Equal(t, int64(1), artist.UnreadMessages)
	assert.Len(t, artist.RecentOrders, 4)
}

func TestOrderService_ArtistDashboardLimitsRecentOrders(t *testing.T) {
	f := newOrderFixture(t)
	for i := 0; i < 12; i++ {
		testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)
	}

	dashboard, err := f.orders.ArtistDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), dashboard.PendingOrders)
	assert.Len(t, dashboard.RecentOrders, 10)
}

func TestOrderService_Inbox(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	older := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)
	newer := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)
	quiet := testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)

	testutil.CreateMessage(t, f.db, older, f.customer, "first")
	testutil.CreateMessage(t, f.db, newer, f.customer, "second")
	testutil.CreateMessage(t, f.db, newer, f.customer, "third")
	testutil.CreateMessage(t, f.db, quiet, f.artist, "artist only")

	require.NoError(t, f.db.Model(older).UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)
	require.NoError(t, f.db.Model(newer).UpdateColumn("updated_at", time.Now()).Error)

	inbox, err := f.orders.Inbox(ctx)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, newer.ID, inbox[0].ID)
	assert.Equal(t, int64(2), inbox[0].UnreadCount)
	assert.Equal(t, older.ID, inbox[1].ID)

	_, err = markMessagesRead(f.db, older.ID, models.RoleCustomer)
	require.NoError(t, err)
	_, err = markMessagesRead(f.db, newer.ID, models.RoleCustomer)
	require.NoError(t, err)

	inbox, err = f.orders.Inbox(ctx)
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestOrderService_Customers(t *testing.T) {
	f := newOrderFixture(t)
	idle := testutil.CreateUser(t, f.db, "idle", models.RoleCustomer)

	testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderCompleted)
	testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderCompleted)
	testutil.CreateOrder(t, f.db, f.customer, f.service, models.OrderPending)

	roster, err := f.orders.Customers(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 2, "the artist is not part of the roster")

	assert.Equal(t, f.customer.ID, roster[0].User.ID)
	assert.Equal(t, int64(3), roster[0].TotalOrders)
	assert.Equal(t, int64(2), roster[0].CompletedOrders)
	assert.Equal(t, int64(180000), roster[0].TotalSpent)

	assert.Equal(t, idle.ID, roster[1].User.ID)
	assert.Zero(t, roster[1].TotalOrders)
	assert.Zero(t, roster[1].TotalSpent)
}
