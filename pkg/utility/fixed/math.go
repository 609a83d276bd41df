package fixed

func Mean(points []Point) Point {
	if len(points) == 0 {
		return Zero
	}
	sum := Zero
	for _, point := range points {
		sum = sum.Add(point)
	}
	return sum.DivInt(len(points))
}

func StdDev(points []Point, mean Point) Point {
	if len(points) <= 1 {
		return Zero
	}
	return squaredDiffSum(points, mean).DivInt(len(points)).Sqrt()
}

// DownsideDev only considers points below the threshold.
func DownsideDev(points []Point, threshold Point) Point {
	var below []Point
	for _, point := range points {
		if point.Lt(threshold) {
			below = append(below, point)
		}
	}
	if len(below) <= 1 {
		return Zero
	}
	return squaredDiffSum(below, threshold).DivInt(len(below)).Sqrt()
}

func SharpeRatio(points []Point, riskFreeRate Point) Point {
	if len(points) == 0 {
		return Zero
	}

	mean := Mean(points)
	volatility := StdDev(points, mean)
	if volatility.IsZero() {
		return Zero
	}
	return mean.Sub(riskFreeRate).Div(volatility)
}

func SortinoRatio(points []Point, riskFreeRate Point) Point {
	if len(points) == 0 {
		return Zero
	}

	mean := Mean(points)
	downside := DownsideDev(points, riskFreeRate)
	if downside.IsZero() {
		return Zero
	}
	return mean.Sub(riskFreeRate).Div(downside)
}

func squaredDiffSum(points []Point, center Point) Point {
	sum := Zero
	for _, point := range points {
		diff := point.Sub(center)
		sum = sum.Add(diff.Mul(diff))
	}
	return sum
}
