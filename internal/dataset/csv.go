// Package dataset loads the merchant reference CSV exports into an immutable
// in-memory store. The profile and sales exports arrive cp949-encoded; the
// customer export is utf-8. Decoding happens once here at the boundary, and
// cells that fail numeric parsing become nil fields rather than aborting the
// load.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"merchant-insight-workers/internal/common/logger"
	"merchant-insight-workers/internal/models"
)

// Column headers of the merchant profile export.
const (
	colMerchantID = "ENCODED_MCT"
	colName       = "MCT_NM"
	colAddress    = "MCT_BSE_AR"
	colBrandCode  = "MCT_BRD_NUM"
	colIndustry   = "HPSN_MCT_ZCD_NM"
	colTradeZone  = "HPSN_MCT_BZN_CD_NM"
	colOpenedAt   = "ARE_D"
	colClosedAt   = "MCT_ME_D"
)

// Column headers shared by the monthly exports.
const colYearMonth = "TA_YM"

// Sales indicator columns, in the order of the fixed indicator set.
var salesColumns = map[string]string{
	"M12_SME_RY_SAA_PCE_RT":  models.IndustrySalesRankPct,
	"M12_SME_BZN_SAA_PCE_RT": models.TradeZoneSalesRankPct,
	"M1_SME_RY_SAA_RAT":      models.SameIndustrySalesRatio,
	"M12_SME_RY_ME_MCT_RAT":  models.IndustryClosureRatio,
	"M12_SME_BZN_ME_MCT_RAT": models.TradeZoneClosureRatio,
	"DLV_SAA_RAT":            models.DeliverySalesRatio,
	"APV_CE_RAT":             models.ApprovalCancelRatio,
}

type csvTable struct {
	header map[string]int
	rows   [][]string
}

func readCSV(path, encoding string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var src io.Reader = f
	switch strings.ToLower(encoding) {
	case "cp949", "euc-kr", "euckr":
		src = transform.NewReader(f, korean.EUCKR.NewDecoder())
	case "", "utf-8", "utf8":
		// no transform
	default:
		return nil, fmt.Errorf("unsupported encoding %q for %s", encoding, path)
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1 // ragged rows tolerated, cells resolved by header index

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty file", path)
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}

	return &csvTable{header: header, rows: records[1:]}, nil
}

// cell returns the trimmed value at the named column, "" when the column is
// absent or the row is short.
func (t *csvTable) cell(row []string, column string) string {
	idx, ok := t.header[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// numericCell parses the named column as a float, nil on empty or
// unparseable values. Parse failures are logged at debug and never abort.
func (t *csvTable) numericCell(row []string, column string, log logger.Logger) *float64 {
	raw := t.cell(row, column)
	if raw == "" || raw == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Debug("non-numeric cell skipped", map[string]interface{}{
			"column": column,
			"value":  raw,
		})
		return nil
	}
	return &v
}

func loadProfiles(path, encoding string, log logger.Logger) ([]models.MerchantProfile, error) {
	table, err := readCSV(path, encoding)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.MerchantProfile, 0, len(table.rows))
	for _, row := range table.rows {
		id := table.cell(row, colMerchantID)
		if id == "" {
			continue
		}
		profiles = append(profiles, models.MerchantProfile{
			MerchantID:        id,
			Name:              table.cell(row, colName),
			Address:           table.cell(row, colAddress),
			BrandCode:         table.cell(row, colBrandCode),
			IndustryCategory:  table.cell(row, colIndustry),
			TradeZoneCategory: table.cell(row, colTradeZone),
			OpenedAt:          table.cell(row, colOpenedAt),
			ClosedAt:          table.cell(row, colClosedAt),
		})
	}
	return profiles, nil
}

func loadSales(path, encoding string, log logger.Logger) (map[string][]models.MonthlySalesRecord, error) {
	table, err := readCSV(path, encoding)
	if err != nil {
		return nil, err
	}

	sales := make(map[string][]models.MonthlySalesRecord)
	for _, row := range table.rows {
		id := table.cell(row, colMerchantID)
		if id == "" {
			continue
		}
		rec := models.MonthlySalesRecord{
			MerchantID: id,
			YearMonth:  table.cell(row, colYearMonth),
		}
		for column, indicator := range salesColumns {
			v := table.numericCell(row, column, log)
			switch indicator {
			case models.IndustrySalesRankPct:
				rec.IndustrySalesRankPct = v
			case models.TradeZoneSalesRankPct:
				rec.TradeZoneSalesRankPct = v
			case models.SameIndustrySalesRatio:
				rec.SameIndustrySalesRatio = v
			case models.IndustryClosureRatio:
				rec.IndustryClosureRatio = v
			case models.TradeZoneClosureRatio:
				rec.TradeZoneClosureRatio = v
			case models.DeliverySalesRatio:
				rec.DeliverySalesRatio = v
			case models.ApprovalCancelRatio:
				rec.ApprovalCancelRatio = v
			}
		}
		sales[id] = append(sales[id], rec)
	}
	return sales, nil
}

func loadCustomers(path, encoding string, log logger.Logger) (map[string][]models.MonthlyCustomerRecord, error) {
	table, err := readCSV(path, encoding)
	if err != nil {
		return nil, err
	}

	customers := make(map[string][]models.MonthlyCustomerRecord)
	for _, row := range table.rows {
		id := table.cell(row, colMerchantID)
		if id == "" {
			continue
		}
		rec := models.MonthlyCustomerRecord{
			MerchantID: id,
			YearMonth:  table.cell(row, colYearMonth),

			MaleUnder30Ratio:   table.numericCell(row, "M12_MAL_1020_RAT", log),
			Male30sRatio:       table.numericCell(row, "M12_MAL_30_RAT", log),
			Male40sRatio:       table.numericCell(row, "M12_MAL_40_RAT", log),
			Male50sRatio:       table.numericCell(row, "M12_MAL_50_RAT", log),
			Male60PlusRatio:    table.numericCell(row, "M12_MAL_60_RAT", log),
			FemaleUnder30Ratio: table.numericCell(row, "M12_FME_1020_RAT", log),
			Female30sRatio:     table.numericCell(row, "M12_FME_30_RAT", log),
			Female40sRatio:     table.numericCell(row, "M12_FME_40_RAT", log),
			Female50sRatio:     table.numericCell(row, "M12_FME_50_RAT", log),
			Female60PlusRatio:  table.numericCell(row, "M12_FME_60_RAT", log),
			RevisitRatio:       table.numericCell(row, "MCT_UE_CLN_REU_RAT", log),
			NewCustomerRatio:   table.numericCell(row, "MCT_UE_CLN_NEW_RAT", log),
		}
		customers[id] = append(customers[id], rec)
	}
	return customers, nil
}
