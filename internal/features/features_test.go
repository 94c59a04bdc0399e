package features

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnlockedMonotonicity(t *testing.T) {
	for years := 0; years <= 20; years++ {
		lower := Unlocked(years)
		higher := Unlocked(years + 1)

		set := make(map[Flag]struct{}, len(higher))
		for _, flag := range higher {
			set[flag] = struct{}{}
		}
		for _, flag := range lower {
			_, ok := set[flag]
			require.True(t, ok, "flag %s unlocked at %d but missing at %d", flag, years, years+1)
		}
	}
}

func TestUnlockedTable(t *testing.T) {
	require.Equal(t, []Flag{Memories, BasicMilestones}, Unlocked(0))

	atOne := Unlocked(1)
	require.Contains(t, atOne, Milestones)
	require.Contains(t, atOne, GrowthChart)
	require.Contains(t, atOne, AICaptions)
	require.NotContains(t, atOne, MemoryMap)

	atEighteen := Unlocked(18)
	require.Len(t, atEighteen, len(All()))
	require.Contains(t, atEighteen, OwnershipTransfer)
	require.Contains(t, atEighteen, FullExport)
}

func TestHas(t *testing.T) {
	require.True(t, Has(0, Memories))
	require.False(t, Has(0, BedtimeStories))
	require.True(t, Has(3, BedtimeStories))
	require.False(t, Has(12, Guestbook))
	require.True(t, Has(13, Guestbook))
	require.False(t, Has(5, "no_such_feature"))
}

func TestUnlockAge(t *testing.T) {
	at, ok := UnlockAge(BedtimeStories)
	require.True(t, ok)
	require.Equal(t, 3, at)

	_, ok = UnlockAge("no_such_feature")
	require.False(t, ok)
}

func TestUpcomingTruncatesToThree(t *testing.T) {
	upcoming := Upcoming(2)
	require.Len(t, upcoming, 3)

	require.Equal(t, 3, upcoming[0].AtAge)
	require.Equal(t, []Flag{BedtimeStories}, upcoming[0].Flags)
	require.Equal(t, 5, upcoming[1].AtAge)
	require.Equal(t, []Flag{VoiceNotes, Drawings}, upcoming[1].Flags)
	require.Equal(t, 13, upcoming[2].AtAge)
	require.Equal(t, []Flag{Guestbook, Journaling}, upcoming[2].Flags)
}

func TestUpcomingNearAdulthood(t *testing.T) {
	upcoming := Upcoming(17)
	require.Len(t, upcoming, 1)
	require.Equal(t, 18, upcoming[0].AtAge)

	require.Empty(t, Upcoming(18))
}

func TestCatalogCoversEveryFlag(t *testing.T) {
	infos := Catalog()
	require.Len(t, infos, len(All()))

	for _, info := range infos {
		at, ok := UnlockAge(info.Flag)
		require.True(t, ok, "catalog entry %s not in threshold table", info.Flag)
		require.Equal(t, at, info.UnlocksAt)
		require.NotEmpty(t, info.Name)
	}
}
