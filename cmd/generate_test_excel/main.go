package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

func main() {
	outputDir := filepath.Join("storage", "uploads")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		return
	}

	headers := []string{
		"Account Number", "Account Name", "Account Type", "Fund Class", "Fund", "Budget Amount",
	}

	// File 1: a clean hierarchical chart with preamble rows above the header,
	// the way finance departments usually export their adopted budget.
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Budget Accounts"
	if _, err := f.NewSheet(sheetName); err != nil {
		fmt.Printf("Error creating sheet: %v\n", err)
		return
	}

	f.SetCellValue(sheetName, "A1", "City of Riverton Utilities")
	f.SetCellValue(sheetName, "A2", "Adopted Budget - Fiscal Year 2025")

	headerRow := 4
	for i, header := range headers {
		cell := fmt.Sprintf("%s%d", getColumnName(i), headerRow)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", headerRow),
		fmt.Sprintf("%s%d", getColumnName(len(headers)-1), headerRow), headerStyle)

	cleanData := [][]interface{}{
		{"110", "Cash and Investments", "Asset", "Governmental", "General", "$2,400,000"},
		{"210", "Accounts Payable", "Payables", "Governmental", "General", "$150,000"},
		{"310", "Retained Earnings", "Retained Earnings", "Proprietary", "General", "$5,200,000"},
		{"410", "Water Sales Revenue", "Revenue", "Proprietary", "Water", "$1,250,000"},
		{"410.1", "Residential Water Sales", "Revenue", "Proprietary", "Water", "$825,000"},
		{"410.2", "Commercial Water Sales", "Revenue", "Proprietary", "Water", "$340,000"},
		{"410.3", "Irrigation Water Sales", "Revenue", "Proprietary", "Water", "$85,000"},
		{"420", "Sewer Service Charges", "Revenue", "Proprietary", "Sewer", "$940,000"},
		{"420.1", "Residential Sewer Charges", "Revenue", "Proprietary", "Sewer", "$610,000"},
		{"420.2", "Commercial Sewer Charges", "Revenue", "Proprietary", "Sewer", "$330,000"},
		{"430", "Trash Collection Fees", "Revenue", "Proprietary", "Trash", "$405,000"},
		{"510", "Water Operations", "Expense", "Proprietary", "Water", "$980,000"},
		{"510.1", "Salaries and Wages", "Expense", "Proprietary", "Water", "$525,000"},
		{"510.2", "Chemicals and Supplies", "Expense", "Proprietary", "Water", "$180,000"},
		{"510.3", "Utilities and Power", "Expense", "Proprietary", "Water", "$275,000"},
		{"520", "Sewer Operations", "Expense", "Proprietary", "Sewer", "$760,000"},
		{"520.1", "Treatment Plant Operations", "Expense", "Proprietary", "Sewer", "$430,000"},
		{"520.2", "Collection System Maintenance", "Expense", "Proprietary", "Sewer", "$330,000"},
	}

	for rowIdx, rowData := range cleanData {
		row := headerRow + 1 + rowIdx
		for colIdx, value := range rowData {
			cell := fmt.Sprintf("%s%d", getColumnName(colIdx), row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 18)
	f.SetColWidth(sheetName, "B", "B", 35)
	f.SetColWidth(sheetName, "C", "C", 18)
	f.SetColWidth(sheetName, "D", "D", 15)
	f.SetColWidth(sheetName, "E", "E", 12)
	f.SetColWidth(sheetName, "F", "F", 16)

	// Instructions sheet
	instructionsSheet := "Instructions"
	if _, err := f.NewSheet(instructionsSheet); err != nil {
		fmt.Printf("Error creating instructions sheet: %v\n", err)
		return
	}
	f.SetCellValue(instructionsSheet, "A1", "TEST DATA NOTES")
	f.SetCellValue(instructionsSheet, "A3", "This file exercises the happy path of the budget import:")
	f.SetCellValue(instructionsSheet, "A4", "- Title rows above the header test the header-row scan")
	f.SetCellValue(instructionsSheet, "A5", "- Dotted codes (410.1 under 410) test hierarchy linking")
	f.SetCellValue(instructionsSheet, "A6", "- Dollar-formatted amounts test the amount parser")
	f.SetCellValue(instructionsSheet, "A7", "- All five account types and four funds appear at least once")

	dataIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(dataIndex)
	f.DeleteSheet("Sheet1")

	outputPath1 := filepath.Join(outputDir, "budget_accounts_clean.xlsx")
	if err := f.SaveAs(outputPath1); err != nil {
		fmt.Printf("Error saving file: %v\n", err)
		return
	}

	fmt.Printf("✓ Test file 1 created: %s\n", outputPath1)
	fmt.Printf("  Total rows: %d\n", len(cleanData))

	// File 2: a dirty chart that trips the batch validations. The header sits
	// on the first row here; both layouts must parse.
	f2 := excelize.NewFile()
	defer f2.Close()

	sheetName2 := "Budget Accounts"
	if _, err := f2.NewSheet(sheetName2); err != nil {
		fmt.Printf("Error creating sheet 2: %v\n", err)
		return
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", getColumnName(i))
		f2.SetCellValue(sheetName2, cell, header)
	}

	// Style IDs are scoped to the file that created them.
	headerStyle2, _ := f2.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f2.SetCellStyle(sheetName2, "A1", fmt.Sprintf("%s1", getColumnName(len(headers)-1)), headerStyle2)

	dirtyData := [][]interface{}{
		{"610", "Electric Operations", "Expense", "Proprietary", "Electric", "$1,100,000"},
		// Duplicate account number
		{"610.1", "Purchased Power", "Expense", "Proprietary", "Electric", "$640,000"},
		{"610.1", "Purchased Power (duplicate row)", "Expense", "Proprietary", "Electric", "$640,000"},
		// Malformed account number
		{"abc", "Meter Reading", "Expense", "Proprietary", "Electric", "$75,000"},
		// Negative budget amount
		{"610.2", "Line Maintenance", "Expense", "Proprietary", "Electric", "-45000"},
		// Blank name imports with the generated fallback description
		{"610.3", "", "Expense", "Proprietary", "Electric", "$90,000"},
		// Blank account number stops the parser; the totals row below is
		// never imported.
		{"", "", "", "", "", ""},
		{"", "Grand Total", "", "", "", "$2,455,000"},
	}

	for rowIdx, rowData := range dirtyData {
		row := rowIdx + 2
		for colIdx, value := range rowData {
			cell := fmt.Sprintf("%s%d", getColumnName(colIdx), row)
			f2.SetCellValue(sheetName2, cell, value)
		}
	}

	f2.SetColWidth(sheetName2, "A", "A", 18)
	f2.SetColWidth(sheetName2, "B", "B", 35)
	f2.SetColWidth(sheetName2, "C", "C", 18)
	f2.SetColWidth(sheetName2, "D", "D", 15)
	f2.SetColWidth(sheetName2, "E", "E", 12)
	f2.SetColWidth(sheetName2, "F", "F", 16)

	f2.DeleteSheet("Sheet1")

	outputPath2 := filepath.Join(outputDir, "budget_accounts_dirty.xlsx")
	if err := f2.SaveAs(outputPath2); err != nil {
		fmt.Printf("Error saving file 2: %v\n", err)
		return
	}

	fmt.Printf("✓ Test file 2 created: %s\n", outputPath2)
	fmt.Printf("  Total rows: %d (expect duplicate, malformed and negative-amount findings)\n", len(dirtyData))
}

func getColumnName(index int) string {
	result := ""
	for index >= 0 {
		result = string(rune('A'+(index%26))) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}
