package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func TestCanTransitionTo(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to JackpotStatus
		ok       bool
	}{
		{JackpotStatusDraft, JackpotStatusActive, true},
		{JackpotStatusActive, JackpotStatusSettled, true},
		{JackpotStatusSettled, JackpotStatusPaid, true},
		{JackpotStatusDraft, JackpotStatusSettled, false},
		{JackpotStatusActive, JackpotStatusDraft, false},
		{JackpotStatusSettled, JackpotStatusActive, false},
		{JackpotStatusPaid, JackpotStatusSettled, false},
		{JackpotStatusPaid, JackpotStatusPaid, false},
	}

	for _, tc := range cases {
		j := Jackpot{Status: tc.from}
		require.Equal(t, tc.ok, j.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestDangerZoneDisabledSurvivesInsert(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)

	j := Jackpot{
		ID:                "jp-1",
		CampaignName:      "Launch Week",
		Budget:            5000,
		Currency:          "USD",
		RewardRatePer1k:   2.5,
		PayoutMode:        PayoutModeInstant,
		StartDate:         time.Now(),
		EndDate:           time.Now().Add(72 * time.Hour),
		Platforms:         Platforms{TikTok: true},
		Eligibility:       EligibilityPublic,
		DangerZoneEnabled: false,
		BottomPercentile:  25,
		StripPercentage:   50,
		StripType:         StripTypePartial,
		WinnersCount:      3,
		PrizeDistribution: []float64{60, 30, 10},
		Status:            JackpotStatusDraft,
	}
	stmt := db.Create(&j).Statement

	sql := stmt.SQL.String()
	start := strings.Index(sql, "(")
	end := strings.Index(sql, ")")
	require.Greater(t, end, start)

	// The column must appear in the INSERT with its explicit value bound,
	// not be dropped in favor of a schema default.
	idx := -1
	for i, col := range strings.Split(sql[start+1:end], ",") {
		if strings.Trim(strings.TrimSpace(col), "`\"") == "danger_zone_enabled" {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0, "danger_zone_enabled missing from INSERT: %s", sql)
	require.Less(t, idx, len(stmt.Vars))
	require.Equal(t, false, stmt.Vars[idx])
}

func TestPlatformsAny(t *testing.T) {
	t.Parallel()

	require.False(t, Platforms{}.Any())
	require.True(t, Platforms{TikTok: true}.Any())
	require.True(t, Platforms{Instagram: true, Twitter: true}.Any())
}

func TestValidPlatform(t *testing.T) {
	t.Parallel()

	for _, p := range []Platform{PlatformTikTok, PlatformInstagram, PlatformYouTube, PlatformTwitter} {
		require.True(t, ValidPlatform(p))
	}
	require.False(t, ValidPlatform("facebook"))
	require.False(t, ValidPlatform(""))
}
