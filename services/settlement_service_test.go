package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"content-jackpot-service/models"
	"content-jackpot-service/scoring"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "jackpot.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Jackpot{},
		&models.Submission{},
		&models.SettlementResult{},
		&models.SettlementWinner{},
	))
	return db
}

func seedJackpot(t *testing.T, db *gorm.DB, endDate time.Time, views []int64) *models.Jackpot {
	t.Helper()

	jp := &models.Jackpot{
		ID:                uuid.NewString(),
		CampaignName:      "Spring Clips",
		Budget:            5000,
		Currency:          "USD",
		RewardRatePer1k:   2.5,
		StartDate:         endDate.Add(-96 * time.Hour),
		EndDate:           endDate,
		Platforms:         models.Platforms{TikTok: true},
		DangerZoneEnabled: true,
		BottomPercentile:  25,
		StripPercentage:   50,
		StripType:         models.StripTypePartial,
		WinnersCount:      3,
		PrizeDistribution: []float64{60, 30, 10},
		Status:            models.JackpotStatusActive,
	}
	require.NoError(t, db.Create(jp).Error)

	for i, v := range views {
		sub := &models.Submission{
			ID:          uuid.NewString(),
			JackpotID:   jp.ID,
			UserID:      fmt.Sprintf("creator-%d", i+1),
			UserName:    fmt.Sprintf("Creator %d", i+1),
			ContentURL:  fmt.Sprintf("https://tiktok.com/@creator%d/video/%d", i+1, i+1),
			Platform:    models.PlatformTikTok,
			ViewsCount:  v,
			LastUpdated: time.Now(),
		}
		require.NoError(t, db.Create(sub).Error)
	}
	return jp
}

func loadSettlement(t *testing.T, db *gorm.DB, jackpotID string) models.SettlementResult {
	t.Helper()

	var settlement models.SettlementResult
	err := db.
		Preload("Winners", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		First(&settlement, "jackpot_id = ?", jackpotID).Error
	require.NoError(t, err)
	return settlement
}

func TestSettleJackpot(t *testing.T) {
	t.Run("settles an expired jackpot exactly once", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewSettlementService(db)
		jp := seedJackpot(t, db, time.Now().Add(-time.Hour),
			[]int64{12000, 45000, 76000, 98000, 125000})
		ctx := context.Background()

		done, err := svc.SettleJackpot(ctx, jp.ID)
		require.NoError(t, err)
		require.True(t, done)

		var settled models.Jackpot
		require.NoError(t, db.First(&settled, "id = ?", jp.ID).Error)
		require.Equal(t, models.JackpotStatusSettled, settled.Status)
		require.NotNil(t, settled.SettledAt)

		// PARTIAL strip on the bottom 2 of 5: 15.00 + 56.25.
		first := loadSettlement(t, db, jp.ID)
		require.InDelta(t, 71.25, first.Pool, 0.001)
		require.Len(t, first.Winners, 3)
		require.Equal(t, 1, first.Winners[0].Rank)
		require.Equal(t, int64(125000), first.Winners[0].Views)
		require.InDelta(t, scoring.Round2(71.25*0.60), first.Winners[0].Amount, 0.001)
		require.InDelta(t, scoring.Round2(71.25*0.30), first.Winners[1].Amount, 0.001)
		require.InDelta(t, scoring.Round2(71.25*0.10), first.Winners[2].Amount, 0.001)

		// Re-invocation is a no-op and the stored result never changes.
		done, err = svc.SettleJackpot(ctx, jp.ID)
		require.NoError(t, err)
		require.False(t, done)

		again := loadSettlement(t, db, jp.ID)
		require.Equal(t, first, again)

		var count int64
		require.NoError(t, db.Model(&models.SettlementResult{}).
			Where("jackpot_id = ?", jp.ID).Count(&count).Error)
		require.Equal(t, int64(1), count)
	})

	t.Run("not yet expired is a no-op", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewSettlementService(db)
		jp := seedJackpot(t, db, time.Now().Add(24*time.Hour), []int64{9000, 4000})

		done, err := svc.SettleJackpot(context.Background(), jp.ID)
		require.NoError(t, err)
		require.False(t, done)

		var jackpot models.Jackpot
		require.NoError(t, db.First(&jackpot, "id = ?", jp.ID).Error)
		require.Equal(t, models.JackpotStatusActive, jackpot.Status)

		var count int64
		require.NoError(t, db.Model(&models.SettlementResult{}).
			Where("jackpot_id = ?", jp.ID).Count(&count).Error)
		require.Zero(t, count)
	})

	t.Run("zero participants settle to empty pool and no winners", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewSettlementService(db)
		jp := seedJackpot(t, db, time.Now().Add(-time.Hour), nil)

		done, err := svc.SettleJackpot(context.Background(), jp.ID)
		require.NoError(t, err)
		require.True(t, done)

		settlement := loadSettlement(t, db, jp.ID)
		require.Zero(t, settlement.Pool)
		require.Empty(t, settlement.Winners)
	})
}

func TestSettleExpired(t *testing.T) {
	db := openTestDB(t)
	svc := NewSettlementService(db)
	ctx := context.Background()

	expiredA := seedJackpot(t, db, time.Now().Add(-time.Hour), []int64{12000, 45000, 76000})
	expiredB := seedJackpot(t, db, time.Now().Add(-2*time.Hour), []int64{8000, 3000})
	live := seedJackpot(t, db, time.Now().Add(48*time.Hour), []int64{5000})

	settled, err := svc.SettleExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, settled)

	for _, id := range []string{expiredA.ID, expiredB.ID} {
		var jackpot models.Jackpot
		require.NoError(t, db.First(&jackpot, "id = ?", id).Error)
		require.Equal(t, models.JackpotStatusSettled, jackpot.Status)
	}
	var jackpot models.Jackpot
	require.NoError(t, db.First(&jackpot, "id = ?", live.ID).Error)
	require.Equal(t, models.JackpotStatusActive, jackpot.Status)

	// The sweep finds nothing the second time around.
	settled, err = svc.SettleExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, settled)
}
