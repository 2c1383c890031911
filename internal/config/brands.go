package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BrandConfig describes one brand's reorder pipeline: where its
// inventory query lives, where extracted orders are appended, and
// which exclusion rules apply. Column indexes are 1-based.
type BrandConfig struct {
	Name          string `yaml:"name"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
	SheetURL      string `yaml:"sheet_url"`

	QueryTab   string `yaml:"query_tab"`
	HistoryTab string `yaml:"history_tab"`
	LogTab     string `yaml:"log_tab"`
	ArchiveTab string `yaml:"archive_tab"`

	HeaderRows int `yaml:"header_rows"`
	QueryWidth int `yaml:"query_width"`

	ProductCodeCol int `yaml:"product_code_col"`
	VendorCol      int `yaml:"vendor_col"`
	ReorderQtyCol  int `yaml:"reorder_qty_col"`
	ExecutedAtCol  int `yaml:"executed_at_col"`

	HistoryDateCol     int `yaml:"history_date_col"`
	HistoryCodeCol     int `yaml:"history_code_col"`
	HistoryGradeCol    int `yaml:"history_grade_col"`
	HistoryDiscountCol int `yaml:"history_discount_col"`

	LogWidth   int `yaml:"log_width"`
	LogDateCol int `yaml:"log_date_col"`
	LogCodeCol int `yaml:"log_code_col"`
	LogQtyCol  int `yaml:"log_qty_col"`

	ExcludedGrades []string `yaml:"excluded_grades"`
}

// SyncConfig describes the cross-sheet synchronization: order-sheet
// rows are accumulated into a cumulative tab, then the order sheet's
// body is rebuilt from the reorder sheet's open rows.
type SyncConfig struct {
	OrderSpreadsheetID   string `yaml:"order_spreadsheet_id"`
	OrderTab             string `yaml:"order_tab"`
	CumulSpreadsheetID   string `yaml:"cumul_spreadsheet_id"`
	CumulTab             string `yaml:"cumul_tab"`
	ReorderSpreadsheetID string `yaml:"reorder_spreadsheet_id"`
	ReorderTab           string `yaml:"reorder_tab"`

	HeaderRows int `yaml:"header_rows"`
	ReadWidth  int `yaml:"read_width"`
	WriteWidth int `yaml:"write_width"`

	RequiredCol  int   `yaml:"required_col"`
	KeyCol       int   `yaml:"key_col"`
	DoneFlagCols []int `yaml:"done_flag_cols"`
	SortCol      int   `yaml:"sort_col"`
}

// DispatchConfig describes the vendor chat dispatch: the order sheet
// to read, the vendor-to-channel map, and the columns driving the
// today/previous split.
type DispatchConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	OrderTab      string `yaml:"order_tab"`
	VendorTab     string `yaml:"vendor_tab"`

	HeaderRows int `yaml:"header_rows"`
	OrderWidth int `yaml:"order_width"`

	VendorNameCol int `yaml:"vendor_name_col"`
	ChannelCol    int `yaml:"channel_col"`
	OrderDateCol  int `yaml:"order_date_col"`
	OrderVendorCol int `yaml:"order_vendor_col"`
}

type Brands struct {
	Brands   []BrandConfig  `yaml:"brands"`
	Sync     SyncConfig     `yaml:"sync"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Holidays []string       `yaml:"holidays"`
	Mentions []string       `yaml:"mentions"`
}

func LoadBrands(path string) (Brands, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Brands{}, fmt.Errorf("read brands config: %w", err)
	}
	var b Brands
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Brands{}, fmt.Errorf("parse brands config: %w", err)
	}
	for i := range b.Brands {
		b.Brands[i].applyDefaults()
	}
	b.Sync.applyDefaults()
	b.Dispatch.applyDefaults()
	return b, nil
}

func (b Brands) Brand(name string) (BrandConfig, error) {
	for _, br := range b.Brands {
		if br.Name == name {
			return br, nil
		}
	}
	return BrandConfig{}, fmt.Errorf("unknown brand: %s", name)
}

func (c *BrandConfig) applyDefaults() {
	if c.HeaderRows == 0 {
		c.HeaderRows = 2
	}
	if c.QueryWidth == 0 {
		c.QueryWidth = 27
	}
	if c.ProductCodeCol == 0 {
		c.ProductCodeCol = 1
	}
	if c.VendorCol == 0 {
		c.VendorCol = 2
	}
	if c.ReorderQtyCol == 0 {
		c.ReorderQtyCol = 23
	}
	if c.ExecutedAtCol == 0 {
		c.ExecutedAtCol = 25
	}
	if c.HistoryDateCol == 0 {
		c.HistoryDateCol = 1
	}
	if c.HistoryCodeCol == 0 {
		c.HistoryCodeCol = 3
	}
	if c.HistoryGradeCol == 0 {
		c.HistoryGradeCol = 19
	}
	if c.HistoryDiscountCol == 0 {
		c.HistoryDiscountCol = 30
	}
	if c.LogWidth == 0 {
		c.LogWidth = 27
	}
	if c.LogDateCol == 0 {
		c.LogDateCol = 1
	}
	if c.LogCodeCol == 0 {
		c.LogCodeCol = 3
	}
	if c.LogQtyCol == 0 {
		c.LogQtyCol = 27
	}
	if len(c.ExcludedGrades) == 0 {
		c.ExcludedGrades = []string{"E", "F"}
	}
}

func (c *SyncConfig) applyDefaults() {
	if c.HeaderRows == 0 {
		c.HeaderRows = 2
	}
	if c.ReadWidth == 0 {
		c.ReadWidth = 22
	}
	if c.WriteWidth == 0 {
		c.WriteWidth = 18
	}
	if c.RequiredCol == 0 {
		c.RequiredCol = 4
	}
	if c.KeyCol == 0 {
		c.KeyCol = 8
	}
	if len(c.DoneFlagCols) == 0 {
		c.DoneFlagCols = []int{15, 16}
	}
	if c.SortCol == 0 {
		c.SortCol = 8
	}
}

func (c *DispatchConfig) applyDefaults() {
	if c.HeaderRows == 0 {
		c.HeaderRows = 1
	}
	if c.OrderWidth == 0 {
		c.OrderWidth = 12
	}
	if c.VendorNameCol == 0 {
		c.VendorNameCol = 1
	}
	if c.ChannelCol == 0 {
		c.ChannelCol = 2
	}
	if c.OrderDateCol == 0 {
		c.OrderDateCol = 3
	}
	if c.OrderVendorCol == 0 {
		c.OrderVendorCol = 2
	}
}
