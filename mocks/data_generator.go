package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-quotes/internal/types"
)

// DataGenerator generates realistic daily candles for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	// StartDate is the first trading day, truncated to midnight UTC
	StartDate time.Time
	// Count is the number of candles to generate
	Count int
	// SkipWeekends leaves Saturdays and Sundays out of the series
	SkipWeekends bool
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical daily volatility)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per day
	VolumeBase int64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartDate:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Count:          250,
		SkipWeekends:   true,
		InitialPrice:   185.0,
		Volatility:     0.015, // 1.5% per day
		Trend:          0.0,   // neutral
		VolumeBase:     50_000_000,
		VolumeVariance: 0.3,
	}
}

// Generate creates daily candles following a geometric Brownian motion model.
// Every candle satisfies low <= open, close <= high.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Candle {
	candles := make([]types.Candle, 0, config.Count)
	currentPrice := config.InitialPrice
	currentDay := time.Date(config.StartDate.Year(), config.StartDate.Month(), config.StartDate.Day(), 0, 0, 0, 0, time.UTC)

	for len(candles) < config.Count {
		if config.SkipWeekends && isWeekend(currentDay) {
			currentDay = currentDay.AddDate(0, 0, 1)

			continue
		}

		open := currentPrice

		// Box-Muller transform for a normally distributed move
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		open = roundToDecimals(open, 4)
		close = roundToDecimals(close, 4)
		high := roundToDecimals(math.Max(open, close)+highExtension, 4)
		low := roundToDecimals(math.Min(open, close)-lowExtension, 4)

		if low <= 0 {
			low = roundToDecimals(math.Min(open, close)*0.99, 4)
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance

		volume := int64(float64(config.VolumeBase) * volumeVariation)
		if volume < 0 {
			volume = config.VolumeBase / 10
		}

		candles = append(candles, types.NewCandle(currentDay, open, high, low, close, volume))

		currentPrice = close
		currentDay = currentDay.AddDate(0, 0, 1)
	}

	return candles
}

// GenerateYear is a convenience function to generate one trading year of candles.
func GenerateYear() []types.Candle {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility

	return gen.Generate(DefaultConfig())
}

func isWeekend(day time.Time) bool {
	return day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
