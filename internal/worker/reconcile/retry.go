package reconcile

import "time"

const (
	// initialBackoff は指数バックオフの初回遅延（30秒）。
	initialBackoff = 30 * time.Second
	// maxBackoff は指数バックオフの最大遅延（1時間）。
	maxBackoff = time.Hour
)

// CalculateBackoff は試行回数に基づいて指数バックオフ遅延を計算する。
// 初回30秒、2倍ずつ増加、最大1時間。
func CalculateBackoff(attempts int) time.Duration {
	delay := initialBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
