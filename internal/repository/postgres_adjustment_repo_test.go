package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/lendman/internal/model"
)

// PostgresAdjustmentRepoはAdjustmentRepositoryインターフェースを満たすことを検証
func TestPostgresAdjustmentRepo_ImplementsInterface(t *testing.T) {
	var _ AdjustmentRepository = (*PostgresAdjustmentRepo)(nil)
}

// NewPostgresAdjustmentRepoが正しく初期化されることを検証
func TestNewPostgresAdjustmentRepo_Initializes(t *testing.T) {
	repo := NewPostgresAdjustmentRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewAdjustmentで構築した調整マーカーの初期状態を検証
func TestAdjustmentModel_NewAdjustment_Fields(t *testing.T) {
	now := time.Now()
	adj := model.NewAdjustment(7, model.AdjustmentDecrement, now)

	if adj.ID == "" {
		t.Error("expected generated adjustment ID")
	}
	if adj.BookID != 7 {
		t.Errorf("adj.BookID = %d, want 7", adj.BookID)
	}
	if adj.Direction != model.AdjustmentDecrement {
		t.Errorf("adj.Direction = %q, want %q", adj.Direction, model.AdjustmentDecrement)
	}
	if adj.Status != model.AdjustmentStatusPending {
		t.Errorf("adj.Status = %q, want %q", adj.Status, model.AdjustmentStatusPending)
	}
	if adj.Attempts != 0 {
		t.Errorf("adj.Attempts = %d, want 0", adj.Attempts)
	}
	if !adj.NextAttemptAt.Equal(now) {
		t.Errorf("adj.NextAttemptAt = %v, want %v", adj.NextAttemptAt, now)
	}
}

// Deltaが方向に対応する増減量を返すことを検証
func TestAdjustmentModel_Delta(t *testing.T) {
	now := time.Now()

	dec := model.NewAdjustment(1, model.AdjustmentDecrement, now)
	if dec.Delta() != -1 {
		t.Errorf("decrement Delta() = %d, want -1", dec.Delta())
	}

	inc := model.NewAdjustment(1, model.AdjustmentIncrement, now)
	if inc.Delta() != 1 {
		t.Errorf("increment Delta() = %d, want 1", inc.Delta())
	}
}
