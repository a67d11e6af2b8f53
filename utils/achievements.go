package utils

// Achievement is a milestone badge shown on the personal ranking view.
type Achievement struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// Achievements derives milestone badges from a user's lifetime count, current
// rank, and percentile.
func Achievements(checkInCount, rank, percentile int) []Achievement {
	achievements := []Achievement{}

	if checkInCount >= 100 {
		achievements = append(achievements, Achievement{Name: "百日坚持", Icon: "💯", Description: "累计打卡100天"})
	}
	if checkInCount >= 50 {
		achievements = append(achievements, Achievement{Name: "五十里程碑", Icon: "🎖️", Description: "累计打卡50天"})
	}
	if checkInCount >= 30 {
		achievements = append(achievements, Achievement{Name: "月度达人", Icon: "📅", Description: "累计打卡30天"})
	}

	if rank == 1 {
		achievements = append(achievements, Achievement{Name: "排行榜冠军", Icon: "👑", Description: "当前排名第一"})
	}
	if rank <= 3 {
		achievements = append(achievements, Achievement{Name: "前三甲", Icon: "🏆", Description: "进入前三名"})
	}
	if rank <= 10 {
		achievements = append(achievements, Achievement{Name: "十强选手", Icon: "🏅", Description: "进入前十名"})
	}

	if percentile >= 90 {
		achievements = append(achievements, Achievement{Name: "顶尖玩家", Icon: "⭐", Description: "超越90%的用户"})
	}
	if percentile >= 75 {
		achievements = append(achievements, Achievement{Name: "优秀表现", Icon: "✨", Description: "超越75%的用户"})
	}

	return achievements
}
