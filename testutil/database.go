package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkdesk/commission-api/config"
	"github.com/inkdesk/commission-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPassword is the password of every user created by CreateUser
const DefaultPassword = "password123"

// Config returns a configuration suitable for tests
func Config() *config.Config {
	return &config.Config{
		DatabaseDriver: "sqlite",
		DatabaseURL:    "file::memory:",
		Port:           "8080",
		GoEnv:          "test",
		JWTSecret:      "test-secret",
		JWTIssuer:      "commission-api-test",
		JWTAudience:    "commission-api-test",
		TokenTTL:       time.Hour,
		StorageBackend: "local",
		LogLevel:       "error",
		LogFormat:      "json",
		Timezone:       "Asia/Ho_Chi_Minh",
		CORSOrigins:    []string{"http://localhost:5173"},
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
}

// NewTestDB opens a private in-memory SQLite database, migrates every model and
// installs it with config.SetDB. It is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	RequireTestEnvironment(t)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// a single connection keeps the shared in-memory database free of table locks
	sqlDB.SetMaxOpenConns(1)

	if err := models.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	previous := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(previous)
		sqlDB.Close()
	})

	return db
}

// CreateUser inserts a user with DefaultPassword
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        username + "@example.com",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// CreateServiceType inserts an active service type
func CreateServiceType(t *testing.T, db *gorm.DB, name string, price int64) *models.ServiceType {
	t.Helper()

	service := &models.ServiceType{
		Name:     name,
		Slug:     uuid.NewString(),
		Price:    price,
		IsActive: true,
	}
	if err := db.Create(service).Error; err != nil {
		t.Fatalf("Failed to create service type %s: %v", name, err)
	}
	return service
}

// CreateOrder inserts an order directly in the given status, bypassing numbering
func CreateOrder(t *testing.T, db *gorm.DB, customer *models.User, service *models.ServiceType, status models.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		OrderNo:       "DH-TEST-" + uuid.NewString()[:8],
		CustomerID:    customer.ID,
		ServiceTypeID: service.ID,
		Description:   "Test commission",
		Status:        status,
		Price:         service.Price,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	return order
}

// CreateMessage inserts a message from sender on order
func CreateMessage(t *testing.T, db *gorm.DB, order *models.Order, sender *models.User, content string) *models.Message {
	t.Helper()

	message := &models.Message{
		OrderID:  order.ID,
		SenderID: sender.ID,
		Content:  content,
	}
	if err := db.Create(message).Error; err != nil {
		t.Fatalf("Failed to create message: %v", err)
	}
	return message
}
