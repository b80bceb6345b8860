package customers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("MOVAKID_DB_DSN")
	if dsn == "" {
		t.Skip("MOVAKID_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func TestUpsertByEmail(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()
	email := fmt.Sprintf("mk_test_%s@example.com", uuid.NewString())

	first, err := repo.UpsertByEmail(ctx, &models.Customer{
		Email:      email,
		FirstName:  "Anna",
		LastName:   "Kowalska",
		Phone:      "+48123456789",
		Address:    "ul. Testowa 1",
		PostalCode: "00-001",
		City:       "Warszawa",
		Country:    "Polska",
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := repo.UpsertByEmail(ctx, &models.Customer{
		Email:      email,
		FirstName:  "Anna",
		LastName:   "Nowak",
		Phone:      "+48987654321",
		Address:    "ul. Nowa 2",
		PostalCode: "00-002",
		City:       "Krakow",
		Country:    "Polska",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected same customer record, got %s and %s", first.ID, second.ID)
	}
	if second.LastName != "Nowak" || second.City != "Krakow" {
		t.Fatalf("expected refreshed contact fields, got %+v", second)
	}
}

func TestSubscriberLifecycle(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewSubscriberRepository(tx)
	ctx := context.Background()
	email := fmt.Sprintf("mk_news_%s@example.com", uuid.NewString())

	first, err := repo.Subscribe(ctx, email)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if first.Status != enums.SubscriberStatusActive {
		t.Fatalf("expected active subscriber, got %s", first.Status)
	}

	if err := repo.Unsubscribe(ctx, email); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	reactivated, err := repo.Subscribe(ctx, email)
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if reactivated.ID != first.ID {
		t.Fatalf("expected same subscriber record")
	}
	if reactivated.Status != enums.SubscriberStatusActive {
		t.Fatalf("expected reactivated subscriber, got %s", reactivated.Status)
	}

	if err := repo.Unsubscribe(ctx, "missing@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}
