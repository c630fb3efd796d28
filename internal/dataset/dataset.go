package dataset

import (
	"context"
	"strings"

	"merchant-insight-workers/internal/common/config"
	"merchant-insight-workers/internal/common/logger"
	"merchant-insight-workers/internal/models"
	"merchant-insight-workers/internal/store"
)

// Dataset is the in-memory merchant store: loaded once at startup, read-only
// afterward, safe for concurrent readers. It satisfies store.MerchantStore.
type Dataset struct {
	profiles  map[string]models.MerchantProfile
	order     []string // merchant IDs in file order, drives search ordering
	sales     map[string][]models.MonthlySalesRecord
	customers map[string][]models.MonthlyCustomerRecord
}

// Load reads the three CSV exports configured in cfg.
func Load(cfg config.DataConfig, log logger.Logger) (*Dataset, error) {
	log = log.WithFields(map[string]interface{}{"component": "dataset"})

	profiles, err := loadProfiles(cfg.MerchantCSV, cfg.MerchantEncoding, log)
	if err != nil {
		return nil, err
	}

	sales, err := loadSales(cfg.SalesCSV, cfg.SalesEncoding, log)
	if err != nil {
		return nil, err
	}

	customers, err := loadCustomers(cfg.CustomerCSV, cfg.CustomerEncoding, log)
	if err != nil {
		return nil, err
	}

	ds := New(profiles, sales, customers)

	log.Info("reference dataset loaded", map[string]interface{}{
		"merchants":      len(ds.profiles),
		"salesSeries":    len(ds.sales),
		"customerSeries": len(ds.customers),
	})

	return ds, nil
}

// New builds a Dataset from already-typed records. Duplicate profile IDs keep
// the first occurrence.
func New(profiles []models.MerchantProfile, sales map[string][]models.MonthlySalesRecord, customers map[string][]models.MonthlyCustomerRecord) *Dataset {
	ds := &Dataset{
		profiles:  make(map[string]models.MerchantProfile, len(profiles)),
		sales:     sales,
		customers: customers,
	}
	if ds.sales == nil {
		ds.sales = make(map[string][]models.MonthlySalesRecord)
	}
	if ds.customers == nil {
		ds.customers = make(map[string][]models.MonthlyCustomerRecord)
	}

	for _, p := range profiles {
		if _, seen := ds.profiles[p.MerchantID]; seen {
			continue
		}
		ds.profiles[p.MerchantID] = p
		ds.order = append(ds.order, p.MerchantID)
	}
	return ds
}

// GetRecord joins the merchant's profile with its ordered histories and the
// flattened latest snapshot.
func (d *Dataset) GetRecord(_ context.Context, merchantID string) (models.MerchantRecord, error) {
	profile, ok := d.profiles[merchantID]
	if !ok {
		return models.MerchantRecord{}, store.ErrMerchantNotFound
	}

	// NewMerchantRecord sorts in place; hand it copies so the shared
	// dataset stays untouched.
	sales := append([]models.MonthlySalesRecord(nil), d.sales[merchantID]...)
	customer := append([]models.MonthlyCustomerRecord(nil), d.customers[merchantID]...)

	return models.NewMerchantRecord(profile, sales, customer), nil
}

// Search returns merchants whose name contains the filter name
// (case-insensitive), optionally narrowed by location and business type.
// Results keep file order and are de-duplicated by construction.
func (d *Dataset) Search(_ context.Context, filter store.SearchFilter) ([]models.MerchantSummary, error) {
	name := strings.ToLower(strings.TrimSpace(filter.Name))

	var results []models.MerchantSummary
	for _, id := range d.order {
		p := d.profiles[id]
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		if filter.Location != "" &&
			!strings.Contains(p.Address, filter.Location) &&
			!strings.Contains(p.TradeZoneCategory, filter.Location) {
			continue
		}
		if filter.BusinessType != "" && !strings.Contains(p.IndustryCategory, filter.BusinessType) {
			continue
		}
		results = append(results, models.MerchantSummary{
			MerchantID:        p.MerchantID,
			Name:              p.Name,
			Address:           p.Address,
			IndustryCategory:  p.IndustryCategory,
			TradeZoneCategory: p.TradeZoneCategory,
		})
	}
	return results, nil
}

// Size returns the number of loaded merchants.
func (d *Dataset) Size() int {
	return len(d.order)
}
