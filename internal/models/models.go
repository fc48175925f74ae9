package models

import "time"

// Column labels of the WB_Stats_NM_Daily sheet.
const (
	ColCampaignID     = "ID кампании"
	ColTrafficSource  = "Источник трафика"
	ColProductID      = "Артикул WB"
	ColProductName    = "Название товара"
	ColDate           = "Дата"
	ColImpressions    = "Показы"
	ColClicks         = "Клики"
	ColCTR            = "CTR %"
	ColSpend          = "Затраты, ₽"
	ColCartAdds       = "Добавления в корзину"
	ColOrderedQty     = "Заказано товаров, шт"
	ColOrderedRevenue = "Заказано на сумму, ₽"
)

// RequiredColumns lists every label a table must carry, in sheet order.
var RequiredColumns = []string{
	ColCampaignID,
	ColTrafficSource,
	ColProductID,
	ColProductName,
	ColDate,
	ColImpressions,
	ColClicks,
	ColCTR,
	ColSpend,
	ColCartAdds,
	ColOrderedQty,
	ColOrderedRevenue,
}

// Live event types pushed to open dashboards.
const (
	EventDatasetLoaded = "dataset_loaded"
	EventFilterApplied = "filter_applied"
)

// RawTable is a sheet as returned by the remote endpoint. Cells are string,
// float64, bool or "" for empty.
type RawTable struct {
	Cols []string
	Rows [][]any
}

type Record struct {
	CampaignID     string  `json:"campaign_id"`
	TrafficSource  string  `json:"traffic_source"`
	ProductID      string  `json:"product_id"`
	ProductName    string  `json:"product_name"`
	Date           string  `json:"date"` // YYYY-MM-DD, "" si no se pudo leer
	Impressions    float64 `json:"impressions"`
	Clicks         float64 `json:"clicks"`
	CTR            float64 `json:"ctr"`
	Spend          float64 `json:"spend"`
	CartAdds       float64 `json:"cart_adds"`
	OrderedQty     float64 `json:"ordered_qty"`
	OrderedRevenue float64 `json:"ordered_revenue"`
}

// Snapshot is the last successfully fetched table. TS is Unix milliseconds.
type Snapshot struct {
	TS        int64    `json:"ts"`
	Rows      [][]any  `json:"rows"`
	Cols      []string `json:"cols"`
	SheetID   string   `json:"sheetId"`
	SheetName string   `json:"sheetName"`
}

func (s Snapshot) CapturedAt() time.Time { return time.UnixMilli(s.TS).UTC() }

func (s Snapshot) Table() RawTable { return RawTable{Cols: s.Cols, Rows: s.Rows} }

type Criteria struct {
	ProductID     string `json:"product_id"`
	TrafficSource string `json:"traffic_source"`
	From          string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To            string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

type Selectors struct {
	ProductIDs     []string `json:"product_ids"`
	TrafficSources []string `json:"traffic_sources"`
	MinDate        string   `json:"min_date"`
	MaxDate        string   `json:"max_date"`
}

type Summary struct {
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	CTR         float64 `json:"ctr"`
	ROAS        float64 `json:"roas"`
}

// FormattedSummary holds the KPI values as shown on the dashboard.
type FormattedSummary struct {
	Spend   string `json:"spend"`
	Revenue string `json:"revenue"`
	CTR     string `json:"ctr"`
	ROAS    string `json:"roas"`
}

type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

type DailySeries struct {
	Labels      []string  `json:"labels"`
	Spend       []float64 `json:"spend"`
	Revenue     []float64 `json:"revenue"`
	Clicks      []float64 `json:"clicks"`
	Impressions []float64 `json:"impressions"`
	Points      []Point   `json:"points"`
}

// RecordsPage is one page of the filtered set. Limit and Offset are the
// values actually applied.
type RecordsPage struct {
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
	Items  []Record `json:"items"`
}

// Source describes where the current dataset came from.
type Source struct {
	SheetID   string    `json:"sheet_id"`
	SheetName string    `json:"sheet_name"`
	FromCache bool      `json:"from_cache"`
	FetchedAt time.Time `json:"fetched_at"`
	Records   int       `json:"records"`
}

type Dashboard struct {
	Criteria  Criteria         `json:"criteria"`
	Selectors Selectors        `json:"selectors"`
	Summary   Summary          `json:"summary"`
	KPIs      FormattedSummary `json:"kpis"`
	Series    DailySeries      `json:"series"`
	Source    Source           `json:"source"`
	Filtered  int              `json:"filtered"`
}
