package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"budget-web/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrHeaderNotFound means no cell in the scanned region contained both
	// "account" and "number".
	ErrHeaderNotFound = errors.New("header row not found")

	// ErrAccountColumnMissing means the header row was located but no column
	// could be mapped to the account number field.
	ErrAccountColumnMissing = errors.New("account number column not found")
)

// Field identifies a semantic spreadsheet column.
type Field string

const (
	FieldAccountNumber Field = "account_number"
	FieldName          Field = "name"
	FieldType          Field = "type"
	FieldFundClass     Field = "fund_class"
	FieldFund          Field = "fund"
	FieldBudgetAmount  Field = "budget_amount"
)

// headerScanLimit bounds the header search region in both dimensions.
const headerScanLimit = 10

// fieldAliases maps each field to its header aliases, tested in order
// against the lowercased header text. FieldFundClass must come before
// FieldFund so a "Fund Class" header is not claimed by the bare "fund"
// alias. The budget aliases deliberately omit a bare "amount" so exported
// "Actual Amount" columns are ignored on re-import.
var fieldAliases = []struct {
	field   Field
	aliases []string
}{
	{FieldAccountNumber, []string{"account number", "account no", "account #", "acct number", "acct no", "account code"}},
	{FieldName, []string{"account name", "description", "account title", "name"}},
	{FieldType, []string{"account type", "type"}},
	{FieldFundClass, []string{"fund class", "fund classification"}},
	{FieldFund, []string{"fund"}},
	{FieldBudgetAmount, []string{"budget amount", "budgeted amount", "adopted budget", "appropriation", "budget"}},
}

// ProgressFunc receives pipeline progress as a percentage (0-100) and a
// short status message.
type ProgressFunc func(percent int, message string)

type ExcelService struct{}

func NewExcelService() *ExcelService {
	return &ExcelService{}
}

// FindHeaderRow scans the top-left region of the sheet, row-major, for the
// first cell whose lowercased text contains both "account" and "number".
// It returns the 1-based row index of that cell's row.
func (s *ExcelService) FindHeaderRow(rows [][]string) (int, error) {
	rowLimit := headerScanLimit
	if len(rows) < rowLimit {
		rowLimit = len(rows)
	}

	for i := 0; i < rowLimit; i++ {
		colLimit := headerScanLimit
		if len(rows[i]) < colLimit {
			colLimit = len(rows[i])
		}
		for j := 0; j < colLimit; j++ {
			text := strings.ToLower(rows[i][j])
			if strings.Contains(text, "account") && strings.Contains(text, "number") {
				return i + 1, nil
			}
		}
	}

	return 0, ErrHeaderNotFound
}

// MapColumns maps header cells to semantic fields. Columns are visited left
// to right; for each one, the first still-unclaimed field with a matching
// alias claims it. Headers that match no alias are ignored.
func (s *ExcelService) MapColumns(header []string) (map[Field]int, error) {
	columns := make(map[Field]int)

	for col, cell := range header {
		text := strings.ToLower(strings.TrimSpace(cell))
		if text == "" {
			continue
		}

		for _, fa := range fieldAliases {
			if _, claimed := columns[fa.field]; claimed {
				continue
			}
			if matchesAlias(text, fa.aliases) {
				columns[fa.field] = col
				break
			}
		}
	}

	if _, ok := columns[FieldAccountNumber]; !ok {
		return nil, ErrAccountColumnMissing
	}

	return columns, nil
}

func matchesAlias(text string, aliases []string) bool {
	for _, alias := range aliases {
		if strings.Contains(text, alias) {
			return true
		}
	}
	return false
}

// ParseRows converts data rows below the header into account records,
// stopping at the first row whose account number cell is blank. Progress is
// reported every 100 rows and once at completion. Cancellation is checked
// per row; a canceled context discards the partial batch.
func (s *ExcelService) ParseRows(ctx context.Context, rows [][]string, headerRow int, columns map[Field]int, progress ProgressFunc) ([]*models.BudgetAccount, error) {
	accountCol := columns[FieldAccountNumber]
	totalRows := len(rows) - headerRow
	if totalRows < 0 {
		totalRows = 0
	}

	var accounts []*models.BudgetAccount
	for i := headerRow; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := rows[i]
		code := strings.TrimSpace(getCellValue(row, accountCol))
		if code == "" {
			break
		}

		account := &models.BudgetAccount{
			Code:        code,
			AccountType: models.AccountTypeAsset,
			IsActive:    true,
		}

		if col, ok := columns[FieldName]; ok {
			account.Name = strings.TrimSpace(getCellValue(row, col))
		}
		if account.Name == "" {
			account.Name = "Account " + code
		}

		if col, ok := columns[FieldType]; ok {
			account.AccountType = models.ParseAccountType(getCellValue(row, col))
		}
		if col, ok := columns[FieldFund]; ok {
			account.Fund = models.ParseFund(getCellValue(row, col))
		}
		if col, ok := columns[FieldFundClass]; ok {
			account.FundClass = models.ParseFundClass(getCellValue(row, col))
		}
		if col, ok := columns[FieldBudgetAmount]; ok {
			account.BudgetedAmount = parseAmount(getCellValue(row, col))
		}

		accounts = append(accounts, account)

		processed := i - headerRow + 1
		if progress != nil && processed%100 == 0 {
			percent := processed * 100 / totalRows
			progress(percent, fmt.Sprintf("Parsed %d of %d rows", processed, totalRows))
		}
	}

	if progress != nil {
		progress(100, fmt.Sprintf("Parsed %d accounts", len(accounts)))
	}

	return accounts, nil
}

// ParseBudgetFile runs extraction and parsing over the first sheet of the
// workbook at filePath.
func (s *ExcelService) ParseBudgetFile(ctx context.Context, filePath string, progress ProgressFunc) ([]*models.BudgetAccount, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	headerRow, err := s.FindHeaderRow(rows)
	if err != nil {
		return nil, err
	}

	columns, err := s.MapColumns(rows[headerRow-1])
	if err != nil {
		return nil, err
	}

	return s.ParseRows(ctx, rows, headerRow, columns, progress)
}

// ExportBudgetReport writes the budget-vs-actual workbook: title and
// metadata rows, a styled header, one row per account in code order with
// variance coloring, and a totals block.
func (s *ExcelService) ExportBudgetReport(accounts []models.BudgetAccount, fiscalYear int, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Budget Report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	sort.Slice(accounts, func(i, j int) bool {
		return models.CompareCodes(accounts[i].Code, accounts[j].Code) < 0
	})

	f.SetCellValue(sheetName, "A1", "Municipal Budget Report")
	f.MergeCell(sheetName, "A1", "H1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	f.SetCellValue(sheetName, "A2", "Generated: "+time.Now().Format("2006-01-02 15:04:05"))
	f.SetCellValue(sheetName, "A3", fmt.Sprintf("Fiscal Year: %d", fiscalYear))

	headers := []string{
		"Account Number", "Account Name", "Type", "Fund",
		"Budget Amount", "Actual Amount", "Variance", "% Variance",
	}
	headerRow := 5
	for i, header := range headers {
		cell := fmt.Sprintf("%s%d", getColumnName(i), headerRow)
		f.SetCellValue(sheetName, cell, header)
	}

	border := []excelize.Border{
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Border: border,
	})
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", getColumnName(len(headers)-1), headerRow), headerStyle)

	amountStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 2})
	positiveStyle, _ := f.NewStyle(&excelize.Style{
		NumFmt: 2,
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
	})
	negativeStyle, _ := f.NewStyle(&excelize.Style{
		NumFmt: 2,
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})

	totalBudget := decimal.Zero
	totalActual := decimal.Zero

	for i, account := range accounts {
		row := headerRow + 1 + i
		variance := account.Variance()

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), account.Code)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), account.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), string(account.AccountType))
		if account.Fund != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), string(*account.Fund))
		}
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), account.BudgetedAmount.InexactFloat64())
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), account.ActualAmount.InexactFloat64())
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), variance.InexactFloat64())
		if percent, ok := account.VariancePercent(); ok {
			f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), percent.InexactFloat64())
		}

		f.SetCellStyle(sheetName, fmt.Sprintf("E%d", row), fmt.Sprintf("F%d", row), amountStyle)
		varianceStyle := amountStyle
		if variance.IsPositive() {
			varianceStyle = positiveStyle
		} else if variance.IsNegative() {
			varianceStyle = negativeStyle
		}
		f.SetCellStyle(sheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("H%d", row), varianceStyle)

		totalBudget = totalBudget.Add(account.BudgetedAmount)
		totalActual = totalActual.Add(account.ActualAmount)
	}

	summaryRow := headerRow + len(accounts) + 2
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	summary := []struct {
		label string
		value decimal.Decimal
	}{
		{"Total Budget", totalBudget},
		{"Total Actual", totalActual},
		{"Total Variance", totalBudget.Sub(totalActual)},
	}
	for i, item := range summary {
		row := summaryRow + i
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), item.label)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), item.value.InexactFloat64())
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), boldStyle)
		f.SetCellStyle(sheetName, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), amountStyle)
	}

	columnWidths := []float64{18, 35, 18, 15, 16, 16, 16, 12}
	for i, width := range columnWidths {
		colName := getColumnName(i)
		f.SetColWidth(sheetName, colName, colName, width)
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

// GenerateImportTemplate creates a template workbook for budget imports: an
// instruction sheet plus a sample data sheet with hierarchical codes.
func (s *ExcelService) GenerateImportTemplate(outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Budget Accounts"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := []string{
		"Account Number", "Account Name", "Type", "Fund", "Fund Class", "Budget Amount",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", getColumnName(i))
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", getColumnName(len(headers)-1)), headerStyle)

	sampleData := [][]interface{}{
		{"100", "Cash and Equivalents", "Asset", "General", "Governmental", 0},
		{"410", "Water Revenue", "Revenue", "Water", "Proprietary", 500000},
		{"410.1", "Residential Water", "Revenue", "Water", "Proprietary", 350000},
		{"410.2", "Commercial Water", "Revenue", "Water", "Proprietary", 150000},
		{"520", "Sewer Operations", "Expense", "Sewer", "Proprietary", 275000},
		{"520.1", "Treatment Plant Salaries", "Expense", "Sewer", "Proprietary", 180000},
	}
	for rowIdx, rowData := range sampleData {
		row := rowIdx + 2
		for colIdx, value := range rowData {
			cell := fmt.Sprintf("%s%d", getColumnName(colIdx), row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	columnWidths := []float64{18, 35, 15, 15, 15, 16}
	for i, width := range columnWidths {
		colName := getColumnName(i)
		f.SetColWidth(sheetName, colName, colName, width)
	}

	instructionSheet := "Instructions"
	if _, err := f.NewSheet(instructionSheet); err != nil {
		return err
	}

	instructions := []string{
		"Budget Account Import Template",
		"",
		"1. Account Number: hierarchical dotted code (e.g. 410, 410.1). Required.",
		"2. Account Name: description of the account.",
		"3. Type: Asset, Payables, Retained Earnings, Revenue, or Expense.",
		"4. Fund: General, Water, Sewer, Trash, Electric, Stormwater, or Enterprise.",
		"5. Fund Class: Governmental, Proprietary, Fiduciary, or Memo.",
		"6. Budget Amount: non-negative number.",
		"",
		"Rows are read until the first blank Account Number cell.",
		"Sub-accounts (410.1) are linked to their parent (410) automatically.",
	}
	for i, line := range instructions {
		f.SetCellValue(instructionSheet, fmt.Sprintf("A%d", i+1), line)
	}
	instructionTitleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
	})
	f.SetCellStyle(instructionSheet, "A1", "A1", instructionTitleStyle)
	f.SetColWidth(instructionSheet, "A", "A", 75)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

// GenerateValidationReport writes the validation messages from an inspected
// import into a reviewable workbook.
func (s *ExcelService) GenerateValidationReport(result models.ValidationResult, totalRecords int, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Validation Errors"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "#")
	f.SetCellValue(sheetName, "B1", "Error Message")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFE6E6"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", "B1", headerStyle)

	errorStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFFFCC"}, Pattern: 1},
	})
	for i, message := range result.Errors {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), message)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), errorStyle)
	}

	summaryStartRow := len(result.Errors) + 4
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow), "Validation Summary")
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow+1), "Total Records:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryStartRow+1), totalRecords)
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow+2), "Errors Found:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryStartRow+2), len(result.Errors))
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow+3), "Generated:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryStartRow+3), time.Now().Format("2006-01-02 15:04:05"))

	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryStartRow), fmt.Sprintf("A%d", summaryStartRow), summaryStyle)

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 80)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

// ExportSessionList writes the import session inventory to a workbook.
func (s *ExcelService) ExportSessionList(sessions []models.ImportSession, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Import Sessions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := []string{
		"Session Code", "Filename", "Status", "Total Rows",
		"Processed", "Inserted", "Updated", "Failed", "Uploaded At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", getColumnName(i))
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", getColumnName(len(headers)-1)), headerStyle)

	for rowIdx, session := range sessions {
		row := rowIdx + 2
		values := []interface{}{
			session.SessionCode,
			session.Filename,
			session.Status,
			session.TotalRows,
			session.ProcessedRows,
			session.InsertedRows,
			session.UpdatedRows,
			session.FailedRows,
			session.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, value := range values {
			cell := fmt.Sprintf("%s%d", getColumnName(colIdx), row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	columnWidths := []float64{18, 35, 15, 12, 12, 12, 12, 12, 20}
	for i, width := range columnWidths {
		colName := getColumnName(i)
		f.SetColWidth(sheetName, colName, colName, width)
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

func getCellValue(row []string, index int) string {
	if index < len(row) {
		return row[index]
	}
	return ""
}

// parseAmount converts a spreadsheet cell to a decimal amount. Blank cells,
// dashes, and unparseable text all yield zero rather than failing the row.
func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

func getColumnName(index int) string {
	result := ""
	for index >= 0 {
		result = string(rune('A'+(index%26))) + result
		index = index/26 - 1
	}
	return result
}
