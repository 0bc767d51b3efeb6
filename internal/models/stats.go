package models

// SaleStats summarizes one user's sales history for the stats endpoint.
type SaleStats struct {
	TotalSales      int64   `json:"total_sales"`
	PendingSales    int64   `json:"pending_sales"`
	SuccessfulSales int64   `json:"successful_sales"`
	FailedSales     int64   `json:"failed_sales"`
	CancelledSales  int64   `json:"cancelled_sales"`
	TotalRevenue    float64 `json:"total_revenue"`
	SuccessRate     float64 `json:"success_rate"`
}
