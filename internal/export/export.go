// Package export writes fetched analysis data to xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/zulandar/segdash/internal/models"
)

// Sheet names.
const (
	CustomersSheet = "Customers"
	SegmentsSheet  = "Segments"
)

var customerHeader = []any{
	"ID", "File", "Education", "Marital Status", "Income",
	"Wines", "Fruits", "Meat", "Fish", "Sweets", "Gold",
	"Web Purchases", "Catalog Purchases", "Store Purchases", "Deals Purchases",
	"Cmp1", "Cmp2", "Cmp3", "Cmp4", "Cmp5",
	"Segment", "Total Spending", "Campaigns Accepted",
}

var segmentHeader = []any{
	"Segment", "Name", "Description", "Customers", "Avg Income", "Avg Spending",
	"Avg Wines", "Avg Web Purchases", "Response Rate", "File",
}

// Customers writes one row per customer. Missing values are left blank.
func Customers(w io.Writer, customers []models.CustomerDTO) error {
	rows := make([][]any, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []any{
			c.ID, c.FileName, c.Education, c.MaritalStatus, cell(c.Income),
			cell(c.MntWines), cell(c.MntFruits), cell(c.MntMeatProducts), cell(c.MntFishProducts),
			cell(c.MntSweetProducts), cell(c.MntGoldProds),
			cell(c.NumWebPurchases), cell(c.NumCatalogPurchases), cell(c.NumStorePurchases), cell(c.NumDealsPurchases),
			cell(c.AcceptedCmp1), cell(c.AcceptedCmp2), cell(c.AcceptedCmp3), cell(c.AcceptedCmp4), cell(c.AcceptedCmp5),
			cell(c.Segment), cell(c.TotalSpending), cell(c.TotalCampaignAccepted),
		})
	}
	return write(w, CustomersSheet, customerHeader, rows)
}

// Segments writes one row per segment.
func Segments(w io.Writer, segments []models.SegmentDTO) error {
	rows := make([][]any, 0, len(segments))
	for _, s := range segments {
		rows = append(rows, []any{
			s.SegmentID, s.SegmentName, s.Description, s.CustomerCount, s.AvgIncome, s.AvgSpending,
			s.AvgMntWines, s.AvgNumWebPurchases, s.ResponseRate, s.FileName,
		})
	}
	return write(w, SegmentsSheet, segmentHeader, rows)
}

// cell turns a nullable value into a cell value; nil becomes an empty cell.
func cell[T int | float64](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func write(w io.Writer, sheet string, header []any, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: style: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return fmt.Errorf("export: row %d: %w", i, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}
