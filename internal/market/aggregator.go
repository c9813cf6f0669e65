package market

import "time"

// Resample aggregates fine-grained bars into interval buckets. barDuration is
// the span of one input bar; a bucket is emitted once the last input bar
// touching it ends, and a trailing partial bucket is emitted as-is.
func Resample(bars []Bar, barDuration, interval time.Duration) []Bar {
	if interval <= barDuration {
		return bars
	}

	var out []Bar
	var cur *Bar
	var end time.Time

	for _, b := range bars {
		if cur != nil && !b.Time.Before(end) {
			out = append(out, *cur)
			cur = nil
		}

		if cur == nil {
			end = b.Time.Truncate(interval).Add(interval)
			cur = &Bar{
				Time: b.Time,
				Open: b.Open,
				High: b.High,
				Low:  b.Low,
			}
		}

		cur.Close = b.Close
		cur.High = max(cur.High, b.High)
		cur.Low = min(cur.Low, b.Low)
		cur.Volume += b.Volume

		if !b.Time.Add(barDuration).Before(end) {
			out = append(out, *cur)
			cur = nil
		}
	}

	if cur != nil {
		out = append(out, *cur)
	}

	return out
}
