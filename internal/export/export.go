// Package export renders a meal log as an Excel workbook.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/edgard/kbzhubot/internal/nutrition"
)

const (
	mealsSheet  = "Дневник"
	totalsSheet = "Итоги"
	dateLayout  = "02.01.2006"
)

var (
	mealsHeader  = []any{"Дата", "Время", "Продукт", "Граммы", "Ккал", "Белки, г", "Жиры, г", "Углеводы, г"}
	totalsHeader = []any{"Дата", "Приёмов пищи", "Ккал", "Белки, г", "Жиры, г", "Углеводы, г"}
)

// Workbook builds an .xlsx file with one row per meal and one row per day
// of [from, to]. Days without meals appear with zero totals.
func Workbook(entries []nutrition.MealEntry, from, to time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(mealsSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if _, err := f.NewSheet(totalsSheet); err != nil {
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("error removing default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating style: %w", err)
	}

	if err := writeMeals(f, entries, headerStyle); err != nil {
		return nil, err
	}
	if err := writeTotals(f, entries, from, to, headerStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename names the export for the covered period.
func Filename(from, to time.Time) string {
	if sameDay(from, to) {
		return fmt.Sprintf("kbzhu_%s.xlsx", from.Format("2006-01-02"))
	}
	return fmt.Sprintf("kbzhu_%s_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func writeMeals(f *excelize.File, entries []nutrition.MealEntry, headerStyle int) error {
	if err := writeHeader(f, mealsSheet, mealsHeader, headerStyle); err != nil {
		return err
	}
	for i, e := range entries {
		var grams any
		if e.Grams != nil {
			grams = *e.Grams
		}
		row := []any{
			e.LoggedAt.Format(dateLayout),
			e.LoggedAt.Format("15:04"),
			e.FoodName,
			grams,
			e.Calories,
			e.ProteinG,
			e.FatG,
			e.CarbsG,
		}
		if err := setRow(f, mealsSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(mealsSheet, "C", "C", 32)
}

func writeTotals(f *excelize.File, entries []nutrition.MealEntry, from, to time.Time, headerStyle int) error {
	if err := writeHeader(f, totalsSheet, totalsHeader, headerStyle); err != nil {
		return err
	}

	byDay := make(map[string][]nutrition.MealEntry)
	for _, e := range entries {
		key := e.LoggedAt.Format(time.DateOnly)
		byDay[key] = append(byDay[key], e)
	}

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	for i, d := range days {
		dayEntries := byDay[d.Format(time.DateOnly)]
		t := nutrition.Sum(dayEntries)
		row := []any{d.Format(dateLayout), len(dayEntries), t.Calories, t.ProteinG, t.FatG, t.CarbsG}
		if err := setRow(f, totalsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []any, style int) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("error resolving header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("error styling header: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("error resolving row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("error writing row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
