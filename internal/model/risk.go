package model

import "time"

// RiskLevel buckets a ticker's recent volatility relative to its mean price.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment is the volatility summary of one month of daily closes.
type RiskAssessment struct {
	Ticker      string
	Volatility  float64 // population standard deviation of the closes
	Mean        float64
	Closes      int
	Level       RiskLevel
	GeneratedAt time.Time
}
