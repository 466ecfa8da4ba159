package utils

import "math"

// CalculateBMI takes height in centimetres and weight in kilograms and rounds to two decimals.
func CalculateBMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*100) / 100
}
