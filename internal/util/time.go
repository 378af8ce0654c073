package util

import "time"

// DateLayout: users.last_active_date에 저장되는 날짜 문자열 포맷
const DateLayout = "2006-01-02"

// DateUTC: 주어진 시간을 UTC 기준 "YYYY-MM-DD" 문자열로 변환합니다.
func DateUTC(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// TodayUTC: 오늘 날짜 문자열을 반환한다. (UTC)
func TodayUTC() string {
	return DateUTC(time.Now())
}

// YesterdayUTC: 어제 날짜 문자열을 반환한다. (UTC)
func YesterdayUTC() string {
	return DateUTC(time.Now().AddDate(0, 0, -1))
}

// DaysSince: 주어진 시각으로부터 경과한 일수를 반환한다. 미래 시각은 0으로 처리한다.
func DaysSince(t time.Time, now time.Time) int {
	if t.After(now) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}
