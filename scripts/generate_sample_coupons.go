//go:build ignore

package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// sampleCoupon mirrors one line of a coupon definition file.
type sampleCoupon struct {
	Code        string     `json:"code"`
	Type        string     `json:"type"`
	Value       float64    `json:"value"`
	UsageLimit  *int       `json:"usageLimit,omitempty"`
	MinPurchase *float64   `json:"minPurchase,omitempty"`
	MaxDiscount *float64   `json:"maxDiscount,omitempty"`
	Active      *bool      `json:"active,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// generateSampleCoupons creates sample coupon files for local runs.
// COUPON_FILES=data/coupons/campaigns.gz,data/coupons/partners.gz
// WELCOME10 appears in both files; the later file wins.
func main() {
	dataDir := "data/coupons"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	limit := func(n int) *int { return &n }
	amount := func(v float64) *float64 { return &v }
	inactive := false
	expired := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	files := map[string][]sampleCoupon{
		"campaigns.gz": {
			{Code: "WELCOME10", Type: "percentage", Value: 10, MaxDiscount: amount(50000)},
			{Code: "SPRING25", Type: "percentage", Value: 25, MinPurchase: amount(1000000), MaxDiscount: amount(250000)},
			{Code: "FLAT50K", Type: "fixed", Value: 50000, UsageLimit: limit(100)},
			{Code: "NOWRUZ1402", Type: "percentage", Value: 20, ExpiresAt: &expired},
		},
		"partners.gz": {
			{Code: "WELCOME10", Type: "percentage", Value: 10, MaxDiscount: amount(5000)},
			{Code: "PARTNER-VIP", Type: "fixed", Value: 150000, UsageLimit: limit(10), MinPurchase: amount(500000)},
			{Code: "PAUSED", Type: "fixed", Value: 10000, Active: &inactive},
		},
	}

	for filename, coupons := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := createCouponFile(filePath, coupons); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d coupons\n", filePath, len(coupons))
	}

	fmt.Println("\nSample coupon files created successfully!")
}

func createCouponFile(filePath string, coupons []sampleCoupon) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	if _, err := fmt.Fprintln(gzipWriter, "# code, type, value and optional limits, one JSON object per line"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	enc := json.NewEncoder(gzipWriter)
	for _, coupon := range coupons {
		if err := enc.Encode(coupon); err != nil {
			return fmt.Errorf("failed to write coupon: %w", err)
		}
	}

	return nil
}
