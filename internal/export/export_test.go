package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/edgard/kbzhubot/internal/nutrition"
)

func TestWorkbook(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)
	grams := 250
	entries := []nutrition.MealEntry{
		{ID: 1, FoodName: "Банан (средний)", Calories: 110, ProteinG: 1.3, FatG: 0.4, CarbsG: 27, LoggedAt: time.Date(2025, 6, 13, 9, 5, 0, 0, time.UTC)},
		{ID: 2, FoodName: "Гречка отварная (250г)", Grams: &grams, Calories: 275, ProteinG: 10.5, FatG: 2.8, CarbsG: 53.3, LoggedAt: time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC)},
		{ID: 3, FoodName: "Яйцо куриное (1 шт)", Calories: 75, ProteinG: 6.5, FatG: 5, CarbsG: 0.6, LoggedAt: time.Date(2025, 6, 15, 19, 30, 0, 0, time.UTC)},
	}

	data, err := Workbook(entries, from, to)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.Equal(t, []string{mealsSheet, totalsSheet}, f.GetSheetList())

	meals, err := f.GetRows(mealsSheet)
	require.NoError(t, err)
	require.Len(t, meals, 4)
	require.Equal(t, "Продукт", meals[0][2])
	require.Equal(t, []string{"15.06.2025", "13:00", "Гречка отварная (250г)", "250", "275", "10.5", "2.8", "53.3"}, meals[2])

	totals, err := f.GetRows(totalsSheet)
	require.NoError(t, err)
	require.Len(t, totals, 4)
	require.Equal(t, []string{"13.06.2025", "1", "110", "1.3", "0.4", "27"}, totals[1])
	require.Equal(t, []string{"14.06.2025", "0", "0", "0", "0", "0"}, totals[2])
	require.Equal(t, []string{"15.06.2025", "2", "350", "17", "7.8", "53.9"}, totals[3])
}

func TestFilename(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "kbzhu_2025-06-15.xlsx", Filename(day, day.Add(23*time.Hour)))
	require.Equal(t, "kbzhu_2025-06-09_2025-06-15.xlsx", Filename(day.AddDate(0, 0, -6), day))
}
