package game

// computeStreak: 연속 접속 스트릭 재계산 규칙.
// 마지막 활동일이 없으면 1, 어제면 +1, 오늘이면 유지, 그 외(하루 이상 건너뜀)는 1로 초기화한다.
func computeStreak(lastActiveDate *string, currentStreak int, today, yesterday string) int {
	switch {
	case lastActiveDate == nil || *lastActiveDate == "":
		return 1
	case *lastActiveDate == yesterday:
		return currentStreak + 1
	case *lastActiveDate == today:
		return currentStreak
	default:
		return 1
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
