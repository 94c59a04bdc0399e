// Package features maps a child's age in years to the set of unlocked
// capabilities. The table is cumulative: everything unlocked at a lower age
// stays unlocked at every higher age.
package features

// Flag names one age-gated capability.
type Flag string

const (
	Memories          Flag = "memories"
	BasicMilestones   Flag = "basic_milestones"
	Milestones        Flag = "milestones"
	GrowthChart       Flag = "growth_chart"
	AICaptions        Flag = "ai_captions"
	MemoryMap         Flag = "memory_map"
	BedtimeStories    Flag = "bedtime_stories"
	VoiceNotes        Flag = "voice_notes"
	Drawings          Flag = "drawings"
	Guestbook         Flag = "guestbook"
	Journaling        Flag = "journaling"
	OwnershipTransfer Flag = "ownership_transfer"
	FullExport        Flag = "full_export"
)

// Unlock pairs a threshold age with the flags it adds.
type Unlock struct {
	AtAge int    `json:"at_age"`
	Flags []Flag `json:"flags"`
}

// thresholds is ordered ascending; Unlocked relies on that ordering.
var thresholds = []Unlock{
	{AtAge: 0, Flags: []Flag{Memories, BasicMilestones}},
	{AtAge: 1, Flags: []Flag{Milestones, GrowthChart, AICaptions}},
	{AtAge: 2, Flags: []Flag{MemoryMap}},
	{AtAge: 3, Flags: []Flag{BedtimeStories}},
	{AtAge: 5, Flags: []Flag{VoiceNotes, Drawings}},
	{AtAge: 13, Flags: []Flag{Guestbook, Journaling}},
	{AtAge: 18, Flags: []Flag{OwnershipTransfer, FullExport}},
}

// Unlocked returns every flag available at the given age, in table order.
func Unlocked(years int) []Flag {
	var flags []Flag
	for _, unlock := range thresholds {
		if years < unlock.AtAge {
			break
		}
		flags = append(flags, unlock.Flags...)
	}
	return flags
}

// Has reports whether the flag is unlocked at the given age.
func Has(years int, flag Flag) bool {
	at, ok := UnlockAge(flag)
	return ok && years >= at
}

// UnlockAge returns the age at which the flag becomes available.
func UnlockAge(flag Flag) (int, bool) {
	for _, unlock := range thresholds {
		for _, f := range unlock.Flags {
			if f == flag {
				return unlock.AtAge, true
			}
		}
	}
	return 0, false
}

// Upcoming lists the next thresholds the child has not reached yet, ascending,
// truncated to at most three entries.
func Upcoming(years int) []Unlock {
	var upcoming []Unlock
	for _, unlock := range thresholds {
		if years >= unlock.AtAge {
			continue
		}
		upcoming = append(upcoming, unlock)
		if len(upcoming) == 3 {
			break
		}
	}
	return upcoming
}

// All returns every known flag in unlock order.
func All() []Flag {
	var flags []Flag
	for _, unlock := range thresholds {
		flags = append(flags, unlock.Flags...)
	}
	return flags
}
