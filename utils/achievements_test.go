package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAchievements(t *testing.T) {
	names := func(list []Achievement) []string {
		out := make([]string, 0, len(list))
		for _, a := range list {
			out = append(out, a.Name)
		}
		return out
	}

	assert.Empty(t, Achievements(5, 100, 10))

	got := names(Achievements(120, 1, 99))
	assert.Contains(t, got, "百日坚持")
	assert.Contains(t, got, "排行榜冠军")
	assert.Contains(t, got, "前三甲")
	assert.Contains(t, got, "顶尖玩家")

	got = names(Achievements(35, 8, 80))
	assert.Contains(t, got, "月度达人")
	assert.Contains(t, got, "十强选手")
	assert.Contains(t, got, "优秀表现")
	assert.NotContains(t, got, "五十里程碑")
}
