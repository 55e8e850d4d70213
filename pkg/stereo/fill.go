package stereo

// DefaultFillRadius is the largest window half-size searched for Full sensing.
const DefaultFillRadius = 6

// FillHoles writes into dst a copy of src where every invalid sample is
// replaced by the mean of the valid samples in the smallest square window
// (half-size 1..radius) that contains any. Samples with no valid neighbour
// within radius stay invalid. dst may be nil.
func FillHoles(dst, src *FloatMap, radius int) *FloatMap {
	if dst == nil {
		dst = &FloatMap{}
	}
	dst.CopyFrom(src)
	if radius <= 0 {
		return dst
	}

	w, h := src.Width, src.Height
	// Summed-area tables of valid values and valid counts, padded by one.
	sw := w + 1
	sum := make([]float64, sw*(h+1))
	cnt := make([]int32, sw*(h+1))
	for y := 0; y < h; y++ {
		var rs float64
		var rc int32
		for x, v := range src.Row(y) {
			if Valid(v) {
				rs += float64(v)
				rc++
			}
			i := (y+1)*sw + x + 1
			sum[i] = sum[i-sw] + rs
			cnt[i] = cnt[i-sw] + rc
		}
	}

	box := func(x0, y0, x1, y1 int) (float64, int32) {
		if x0 < 0 {
			x0 = 0
		}
		if y0 < 0 {
			y0 = 0
		}
		if x1 > w {
			x1 = w
		}
		if y1 > h {
			y1 = h
		}
		a, b, c, d := y0*sw+x0, y0*sw+x1, y1*sw+x0, y1*sw+x1
		return sum[d] - sum[b] - sum[c] + sum[a], cnt[d] - cnt[b] - cnt[c] + cnt[a]
	}

	for y := 0; y < h; y++ {
		row := dst.Row(y)
		for x, v := range row {
			if Valid(v) {
				continue
			}
			for r := 1; r <= radius; r++ {
				s, n := box(x-r, y-r, x+r+1, y+r+1)
				if n > 0 {
					row[x] = float32(s / float64(n))
					break
				}
			}
		}
	}
	return dst
}
