package service

import (
	"fmt"
	"math"
)

// Approximate renders a raw prediction as a human-legible rounded range.
// Band widths grow with the value: unit precision below 10, nearest 5 below
// 100, nearest 10 below 1000, nearest 100 above. Display aid only; the
// rounded value must never feed back into computation.
func Approximate(value float64) string {
	switch {
	case value < 10:
		return fmt.Sprintf("~%d", int(math.Ceil(value)))
	case value < 100:
		return fmt.Sprintf("~%d", int(math.Round(value/5))*5)
	case value < 1000:
		return fmt.Sprintf("~%d", int(math.Round(value/10))*10)
	default:
		return fmt.Sprintf("~%d", int(math.Round(value/100))*100)
	}
}
