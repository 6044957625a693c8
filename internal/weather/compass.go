package weather

import "math"

// compassLabels are the 16 sectors clockwise from north, pt-BR labels.
var compassLabels = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSO", "SO", "OSO", "O", "ONO", "NO", "NNO",
}

// Compass maps a bearing in degrees to the nearest 22.5° sector label.
// 360 wraps to N; negative bearings wrap the other way.
func Compass(deg float64) string {
	ix := int(math.Round(deg/22.5)) % 16
	if ix < 0 {
		ix += 16
	}
	return compassLabels[ix]
}

// KmhFromMs converts m/s to km/h rounded to the nearest integer.
func KmhFromMs(ms float64) int {
	return int(math.Round(ms * 3.6))
}
