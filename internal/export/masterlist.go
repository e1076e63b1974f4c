// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package export renders the senior citizen masterlist as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/olegiv/seniorid/internal/model"
)

// Sheet names.
const (
	MasterlistSheet = "Masterlist"
	SummarySheet    = "Summary"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var masterlistHeader = []string{
	"Control Number", "Last Name", "First Name", "Middle Name", "Suffix",
	"Date of Birth", "Age", "Gender", "Address", "Contact Number",
	"Emergency Contact", "Emergency Phone", "Status", "Registered",
}

// MasterlistFilename returns the download name for a masterlist generated at now.
func MasterlistFilename(now time.Time) string {
	return "seniorid-masterlist-" + now.Format("2006-01-02") + ".xlsx"
}

// WriteMasterlist writes an XLSX workbook listing seniors in the given
// order, plus a summary sheet with counts by status and gender. Ages are
// computed as of now.
func WriteMasterlist(w io.Writer, seniors []model.Senior, now time.Time) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", MasterlistSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	rows := make([][]any, 0, len(seniors))
	for _, s := range seniors {
		rows = append(rows, masterlistRow(s, now))
	}
	if err := writeTable(f, MasterlistSheet, masterlistHeader, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	if err := writeTable(f, SummarySheet, []string{"Group", "Value", "Count"}, summaryRows(seniors)); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func masterlistRow(s model.Senior, now time.Time) []any {
	age := ""
	if a, ok := Age(s.DOB, now); ok {
		age = fmt.Sprint(a)
	}
	return []any{
		s.ControlNumber, s.LastName, s.FirstName, s.MiddleName, s.Suffix,
		s.DOB, age, s.Gender, s.Address, s.ContactNumber,
		s.EmergencyContact, s.EmergencyPhone, string(s.Status),
		s.CreatedAt.Format("2006-01-02"),
	}
}

func summaryRows(seniors []model.Senior) [][]any {
	byStatus := make(map[model.SeniorStatus]int)
	byGender := make(map[string]int)
	for _, s := range seniors {
		byStatus[s.Status]++
		byGender[s.Gender]++
	}

	rows := [][]any{{"Total", "", len(seniors)}}
	for _, st := range []model.SeniorStatus{model.SeniorActive, model.SeniorInactive, model.SeniorSuspended} {
		rows = append(rows, []any{"Status", string(st), byStatus[st]})
	}
	for _, g := range []string{model.GenderMale, model.GenderFemale, model.GenderOther} {
		rows = append(rows, []any{"Gender", g, byGender[g]})
	}
	return rows
}

// writeTable writes a bold, filtered header row followed by rows, and sizes
// columns to their content.
func writeTable(f *excelize.File, sheet string, header []string, rows [][]any) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", last+"1", bold)
	}
	_ = f.AutoFilter(sheet, "A1:"+last+"1", nil)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for c := range header {
		width := float64(len(header[c]))
		for r := 0; r < min(50, len(rows)); r++ {
			if c < len(rows[r]) {
				width = max(width, float64(len(fmt.Sprint(rows[r][c]))))
			}
		}
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(sheet, col, col, min(max(width*1.1, 10), 50))
	}
	return nil
}

// Age returns the age in whole years on now for a YYYY-MM-DD birth date.
func Age(dob string, now time.Time) (int, bool) {
	born, err := time.Parse(time.DateOnly, dob)
	if err != nil || born.After(now) {
		return 0, false
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age, true
}
